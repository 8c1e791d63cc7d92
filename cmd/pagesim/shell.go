package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sibexico/pagesim/paging"
)

const helpText = `commands:
  access <pid> <page>   reference a page
  remove <pid>          free every frame of a process
  state                 print frames and counters
  reset                 empty the policy (snapshots first when a store is configured)
  snapshot [reason]     persist the current state
  help                  show this text
  quit | exit           leave`

type shell struct {
	session *paging.Session
}

func newShell(session *paging.Session) *shell {
	return &shell{session: session}
}

// Run reads one command per line until EOF, quit, or ctx is done
func (s *shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "pagesim(%s)> ", s.session.Algorithm())

		if !scanner.Scan() {
			break // EOF or error
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" {
			break
		}

		text, err := s.execute(line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "%s\n", text)
		}
	}

	return scanner.Err()
}

func (s *shell) execute(line string) (string, error) {
	fields := strings.Fields(line)

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "access":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: access <pid> <page>")
		}
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid page number %q", args[1])
		}
		res, err := s.session.Access(args[0], page)
		if err != nil {
			return "", err
		}
		return formatResult(res), nil

	case "remove":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: remove <pid>")
		}
		if err := s.session.RemoveProcess(args[0]); err != nil {
			return "", err
		}
		return "OK", nil

	case "state":
		var b strings.Builder
		printState(&b, s.session.State())
		return strings.TrimRight(b.String(), "\n"), nil

	case "reset":
		if err := s.session.Reset(); err != nil {
			return "", err
		}
		return "OK", nil

	case "snapshot":
		reason := "manual"
		if len(args) > 0 {
			reason = args[0]
		}
		name, err := s.session.Snapshot(reason)
		if err != nil {
			return "", err
		}
		if name == "" {
			return "snapshots are disabled (no snapshot_directory)", nil
		}
		return name, nil

	case "help":
		return helpText, nil

	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func formatResult(res paging.AccessResult) string {
	var b strings.Builder
	if res.Hit {
		fmt.Fprintf(&b, "hit frame=%d", res.FrameIndex)
	} else {
		fmt.Fprintf(&b, "fault frame=%d", res.FrameIndex)
		if res.Replaced != nil {
			fmt.Fprintf(&b, " evicted=%s", res.Replaced)
		}
	}
	if res.Frequency > 0 {
		fmt.Fprintf(&b, " freq=%d", res.Frequency)
	}
	return b.String()
}
