package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sibexico/pagesim/paging"
)

type options struct {
	configPath  string
	frames      int
	algorithm   string
	tracePath   string
	pattern     string
	length      int
	processes   int
	pages       int
	seed        int64
	compare     bool
	interactive bool
	jsonOutput  bool
}

func main() {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pagesim: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "JSON config file (PAGESIM_* env vars apply on top)")
	flag.IntVar(&o.frames, "frames", 0, "number of physical frames (overrides config)")
	flag.StringVar(&o.algorithm, "algorithm", "", "fifo, lru or lfu (overrides config)")
	flag.StringVar(&o.tracePath, "trace", "", "trace file of \"pid page\" lines, - for stdin")
	flag.StringVar(&o.pattern, "workload", string(paging.PatternLocality), "synthetic workload: sequential, random, locality, loop")
	flag.IntVar(&o.length, "length", 100, "synthetic workload length")
	flag.IntVar(&o.processes, "processes", 2, "synthetic workload process count")
	flag.IntVar(&o.pages, "pages", 8, "synthetic workload pages per process")
	flag.Int64Var(&o.seed, "seed", 1, "synthetic workload seed")
	flag.BoolVar(&o.compare, "compare", false, "run every algorithm over the same sequence")
	flag.BoolVar(&o.interactive, "interactive", false, "start an interactive shell")
	flag.BoolVar(&o.jsonOutput, "json", false, "print results as JSON")
	flag.Parse()
	return o
}

func loadConfig(o options) (*paging.Config, error) {
	config := paging.DefaultConfig()
	if o.configPath != "" {
		var err error
		config, err = paging.LoadConfigFromFile(o.configPath)
		if err != nil {
			return nil, err
		}
	}
	config.ApplyEnv()

	if o.frames != 0 {
		config.FrameCount = o.frames
	}
	if o.algorithm != "" {
		config.Algorithm = o.algorithm
	}
	return config, config.Validate()
}

func run(ctx context.Context, o options, in io.Reader, out io.Writer) error {
	config, err := loadConfig(o)
	if err != nil {
		return err
	}

	logger := paging.NewLogger(config.LogLevel, config.LogFormat, os.Stderr)
	metrics := paging.NewMetrics()
	sessionOpts := []paging.SessionOption{paging.WithLogger(logger)}
	if config.EnableMetrics {
		sessionOpts = append(sessionOpts, paging.WithMetrics(metrics))
		defer metrics.LogMetrics(logger)
	}

	if config.SnapshotDirectory != "" {
		compression, err := paging.ParseCompressionType(config.SnapshotCompression)
		if err != nil {
			return err
		}
		store, err := paging.NewSnapshotStore(config.SnapshotDirectory, compression)
		if err != nil {
			return err
		}
		defer store.Close()
		sessionOpts = append(sessionOpts, paging.WithSnapshotStore(store))
	}

	if o.interactive {
		session, err := paging.NewSession("interactive", config, sessionOpts...)
		if err != nil {
			return err
		}
		return newShell(session).Run(ctx, in, out)
	}

	accesses, err := loadAccesses(o, in)
	if err != nil {
		return err
	}
	logger.Info("workload loaded", slog.Int("accesses", len(accesses)))

	if o.compare {
		report, err := paging.Compare(ctx, config, accesses, nil, sessionOpts...)
		if err != nil {
			return err
		}
		if o.jsonOutput {
			return writeJSON(out, report)
		}
		printComparison(out, report)
		return nil
	}

	session, err := paging.NewSession("batch", config, sessionOpts...)
	if err != nil {
		return err
	}
	if _, err := session.Run(ctx, accesses); err != nil {
		return err
	}
	if _, err := session.Snapshot("final"); err != nil {
		return err
	}

	state := session.State()
	if o.jsonOutput {
		return writeJSON(out, state)
	}
	printState(out, state)
	return nil
}

func loadAccesses(o options, in io.Reader) ([]paging.Access, error) {
	switch o.tracePath {
	case "":
		return paging.GenerateWorkload(paging.WorkloadSpec{
			Pattern:         paging.Pattern(o.pattern),
			Length:          o.length,
			Processes:       o.processes,
			PagesPerProcess: o.pages,
			Seed:            o.seed,
		})
	case "-":
		return paging.ParseTrace(in)
	default:
		f, err := os.Open(o.tracePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		return paging.ParseTrace(f)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printComparison(out io.Writer, report *paging.ComparisonReport) {
	fmt.Fprintf(out, "frames=%d accesses=%d\n", report.FrameCount, report.Accesses)
	fmt.Fprintf(out, "%-6s %8s %8s %10s %9s\n", "policy", "faults", "hits", "evictions", "hit ratio")
	for _, r := range report.Reports {
		fmt.Fprintf(out, "%-6s %8d %8d %10d %9.3f\n", r.Algorithm, r.PageFaults, r.PageHits, r.Evictions, r.HitRatio)
	}
	fmt.Fprintf(out, "best: %s\n", report.Best)
}

func printState(out io.Writer, st paging.State) {
	fmt.Fprintf(out, "algorithm=%s frames=%d faults=%d hits=%d hit ratio=%.3f\n",
		st.Algorithm, st.FrameCount, st.PageFaults, st.PageHits, st.HitRatio)
	for i, f := range st.Frames {
		if f == nil {
			fmt.Fprintf(out, "  [%d] -\n", i)
		} else {
			fmt.Fprintf(out, "  [%d] %s\n", i, f)
		}
	}
	switch st.Algorithm {
	case paging.AlgorithmFIFO:
		fmt.Fprintf(out, "queue: %v\n", st.Queue)
	case paging.AlgorithmLRU:
		fmt.Fprintf(out, "lru order: %v\n", st.LRUOrder)
	case paging.AlgorithmLFU:
		fmt.Fprintf(out, "frequencies: %v\n", st.Frequencies)
	}
}
