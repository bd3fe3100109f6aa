package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"typobench/internal/config"
	"typobench/internal/duckdb"
	"typobench/internal/metrics"
	"typobench/internal/runner"
	"typobench/internal/ui/live"
)

var (
	runEvaluation = runner.Run
	openDuckDB    = duckdb.Open
	startLiveUI   = func(stdout io.Writer, noColor bool, interrupt func()) liveUI {
		return live.Start(stdout, live.Options{NoColor: noColor, OnInterrupt: interrupt})
	}
)

// liveUI is the part of the live controller the run command drives.
type liveUI interface {
	runner.RunObserver
	Close()
	Wait()
}

func runRun(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to typobench.yml (default: search upward)")
		outputPath := fs.String("output", "", "Override the results file path")
		limit := fs.Int("limit", 0, "Evaluate at most this many rows (0 keeps the config value)")
		uiMode := fs.String("ui", "auto", "Progress display: auto, live or plain")
		verbose := fs.Bool("verbose", false, "Debug logging and per-call progress lines")
		logPath := fs.String("log", "", "Write logs to this file")
		noColor := fs.Bool("no-color", false, "Disable colored output")
		metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if *limit < 0 {
			fmt.Fprintln(stderr, "--limit must be >= 0")
			return ExitUsage
		}

		decision, err := resolveUIMode(*uiMode, *verbose, stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}

		resolved, err := resolveConfigPath(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		cfg, err := config.Load(resolved)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		if err := config.CheckCredentials(cfg, lookupEnv); err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}

		logger, closeLog, err := newRunLogger(stderr, *logPath, *verbose, decision.useLive)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
			return ExitError
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		registry := prometheus.NewRegistry()
		recorder := metrics.New(registry)
		if *metricsAddr != "" {
			shutdown, err := serveMetrics(*metricsAddr, registry, logger)
			if err != nil {
				fmt.Fprintf(stderr, "Failed to start metrics server: %v\n", err)
				return ExitError
			}
			defer shutdown()
		}

		var sinks []runner.BatchSink
		var store *duckdb.Sink
		if cfg.DuckDBPath != "" {
			store, err = openDuckDB(ctx, cfg.DuckDBPath)
			if err != nil {
				fmt.Fprintf(stderr, "Failed to open DuckDB: %v\n", err)
				return ExitError
			}
			defer store.Close()
			sinks = append(sinks, store)
		}

		params := runner.RunParams{
			OutputPath: *outputPath,
			Limit:      *limit,
			Logger:     logger,
			Sinks:      sinks,
			Metrics:    recorder,
			Deps:       runner.RunDependencies{LookupEnv: lookupEnv},
		}
		var ui liveUI
		if decision.useLive {
			ui = startLiveUI(stdout, *noColor, cancel)
			params.Observer = ui
		} else {
			printer := runner.NewProgressPrinter(stdout, cfg.Concurrency, *noColor)
			printer.Verbose = *verbose
			params.Observer = printer
		}

		results, err := runEvaluation(ctx, cfg, params)
		if ui != nil {
			ui.Close()
			ui.Wait()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Run failed: %v\n", err)
			return ExitError
		}
		if ui != nil {
			runner.WriteSummary(stdout, results, *noColor)
		}
		if store != nil {
			writeAccuracy(ctx, stdout, store, results.RunID, logger)
		}
		return ExitOK
	}
}

// writeAccuracy prints per-model accuracy read back from DuckDB.
func writeAccuracy(ctx context.Context, w io.Writer, store *duckdb.Sink, runID string, logger *slog.Logger) {
	rows, err := store.ModelAccuracy(ctx, runID)
	if err != nil {
		logger.Warn("duckdb accuracy query failed", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-20s %-10s %8s %8s %8s\n", "model", "variant", "answers", "correct", "failed")
	for _, row := range rows {
		fmt.Fprintf(w, "  %-20s %-10s %8d %7.1f%% %8d\n", row.ModelID, row.Variant, row.Answers, 100*row.Rate(), row.Failed)
	}
}

// serveMetrics exposes the registry over HTTP until the returned func is called.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", listener.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
