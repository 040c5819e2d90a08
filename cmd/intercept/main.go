package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"interceptor/pkg/errors"
	"interceptor/pkg/scenario"
	"interceptor/pkg/telemetry"
)

const (
	exitOK      = 0
	exitUsage   = 64 // command line usage error
	exitFailure = 70 // a scenario failed or could not be run
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("intercept", flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Bool("v", false, "Log every step, not only failures")
	showMetrics := flags.Bool("metrics", false, "Print Prometheus metrics for the run after all scenarios")
	failFast := flags.Bool("fail-fast", false, "Stop a scenario at its first failing step")
	maxDepth := flags.Int("max-depth", 0, "Nested delegate call limit (0 keeps the engine default)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: intercept [-v] [-metrics] [-fail-fast] [-max-depth N] <scenario.yaml>...\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	registry := prometheus.NewRegistry()
	collector := telemetry.NewCollector()
	if err := collector.Register(registry); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	opts := scenario.Options{
		Logger:       logger,
		Observer:     collector,
		FailFast:     *failFast,
		MaxCallDepth: *maxDepth,
	}

	ok := true
	for _, path := range flags.Args() {
		if !runFile(ctx, path, opts, stdout, stderr) {
			ok = false
		}
		if ctx.Err() != nil {
			break
		}
	}

	if *showMetrics {
		if err := telemetry.WriteText(stdout, registry); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitFailure
		}
	}
	if !ok {
		return exitFailure
	}
	return exitOK
}

// runFile loads and runs every scenario in path, printing one line per
// scenario. It reports whether all of them passed.
func runFile(ctx context.Context, path string, opts scenario.Options, stdout, stderr io.Writer) bool {
	scenarios, err := scenario.LoadFile(path)
	if err != nil {
		displayError(stderr, path, err)
		return false
	}

	ok := true
	for _, sc := range scenarios {
		report, err := scenario.Run(ctx, sc, opts)
		if err != nil {
			displayError(stderr, path, err)
			ok = false
			if ctx.Err() != nil {
				return false
			}
			continue
		}
		if report.Passed() {
			fmt.Fprintf(stdout, "PASS %s (%d steps)\n", sc.Name, len(report.Steps))
			continue
		}
		ok = false
		fmt.Fprintf(stdout, "FAIL %s (%d of %d steps failed)\n", sc.Name, report.Failures, len(report.Steps))
		for _, f := range report.Failed() {
			fmt.Fprintf(stdout, "  %s:%d: %s: %s\n", path, f.Step.Pos.Line, f.Step.Op, f.Failure)
		}
	}
	return ok
}

// displayError prints positioned errors with the offending source line and
// falls back to the plain message for everything else.
func displayError(w io.Writer, path string, err error) {
	var positioned errors.InterceptorError
	if !stderrors.As(err, &positioned) {
		fmt.Fprintf(w, "%s: %v\n", path, err)
		return
	}
	source, _ := os.ReadFile(path)
	errors.DisplayErrors(w, string(source), []errors.InterceptorError{positioned})
}
