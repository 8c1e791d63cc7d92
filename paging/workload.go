package paging

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Access is one (process, page) reference in a workload
type Access struct {
	ProcessID  string `json:"processId"`
	PageNumber int    `json:"pageNumber"`
}

// Pattern selects how GenerateWorkload picks pages
type Pattern string

const (
	PatternSequential Pattern = "sequential" // round-robin over processes, pages in order
	PatternRandom     Pattern = "random"     // uniform over every page of every process
	PatternLocality   Pattern = "locality"   // mostly inside a drifting window, sometimes anywhere
	PatternLoop       Pattern = "loop"       // each process cycles its pages in bursts
)

// WorkloadSpec describes a synthetic access sequence
type WorkloadSpec struct {
	Pattern         Pattern
	Length          int
	Processes       int
	PagesPerProcess int
	Seed            int64
	LocalityWindow  int // pages in the hot window, PatternLocality only
}

// DefaultWorkloadSpec returns a small locality workload
func DefaultWorkloadSpec() WorkloadSpec {
	return WorkloadSpec{
		Pattern:         PatternLocality,
		Length:          100,
		Processes:       2,
		PagesPerProcess: 8,
		Seed:            1,
		LocalityWindow:  3,
	}
}

// ProcessName returns the id GenerateWorkload uses for process i
func ProcessName(i int) string {
	return "P" + strconv.Itoa(i+1)
}

// GenerateWorkload builds a reproducible access sequence; equal WorkloadSpecs yield equal sequences
func GenerateWorkload(spec WorkloadSpec) ([]Access, error) {
	const op = "GenerateWorkload"

	if spec.Length < 0 || spec.Processes <= 0 || spec.PagesPerProcess <= 0 {
		return nil, NewSimError(ErrCodeInvalidWorkload, op,
			fmt.Sprintf("length=%d processes=%d pages=%d", spec.Length, spec.Processes, spec.PagesPerProcess), nil)
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	out := make([]Access, 0, spec.Length)

	switch spec.Pattern {
	case PatternSequential:
		for i := 0; i < spec.Length; i++ {
			proc := i % spec.Processes
			page := (i / spec.Processes) % spec.PagesPerProcess
			out = append(out, Access{ProcessID: ProcessName(proc), PageNumber: page})
		}

	case PatternRandom:
		for i := 0; i < spec.Length; i++ {
			out = append(out, Access{
				ProcessID:  ProcessName(rng.Intn(spec.Processes)),
				PageNumber: rng.Intn(spec.PagesPerProcess),
			})
		}

	case PatternLocality:
		window := spec.LocalityWindow
		if window <= 0 || window > spec.PagesPerProcess {
			window = min(3, spec.PagesPerProcess)
		}
		base := 0
		for i := 0; i < spec.Length; i++ {
			if i > 0 && i%(window*4) == 0 {
				base = (base + 1) % spec.PagesPerProcess
			}
			proc := rng.Intn(spec.Processes)
			var page int
			if rng.Intn(10) < 8 {
				page = (base + rng.Intn(window)) % spec.PagesPerProcess
			} else {
				page = rng.Intn(spec.PagesPerProcess)
			}
			out = append(out, Access{ProcessID: ProcessName(proc), PageNumber: page})
		}

	case PatternLoop:
		burst := spec.PagesPerProcess
		for i := 0; i < spec.Length; i++ {
			proc := (i / (burst * 2)) % spec.Processes
			out = append(out, Access{ProcessID: ProcessName(proc), PageNumber: i % burst})
		}

	default:
		return nil, NewSimError(ErrCodeInvalidWorkload, op, fmt.Sprintf("unknown pattern %q", spec.Pattern), nil)
	}

	return out, nil
}

// ParseTrace reads one "pid page" pair per line
// Fields may be separated by spaces, tabs or commas; blank lines and # comments are skipped
func ParseTrace(r io.Reader) ([]Access, error) {
	const op = "ParseTrace"

	var out []Access
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if len(fields) != 2 {
			return nil, NewSimError(ErrCodeInvalidWorkload, op,
				fmt.Sprintf("line %d: expected \"pid page\", got %q", line, text), nil)
		}

		page, err := strconv.Atoi(fields[1])
		if err != nil || page < 0 {
			return nil, NewSimError(ErrCodeInvalidWorkload, op,
				fmt.Sprintf("line %d: invalid page number %q", line, fields[1]), err)
		}
		out = append(out, Access{ProcessID: fields[0], PageNumber: page})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return out, nil
}
