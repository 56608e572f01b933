package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-blur-bench/pkg/config"
	"go-blur-bench/pkg/coordinator"
	"go-blur-bench/pkg/filter"
	"go-blur-bench/pkg/logging"
	"go-blur-bench/pkg/queue"
	"go-blur-bench/pkg/stats"
	"go-blur-bench/pkg/strategy"
	"go-blur-bench/pkg/transform"
)

const modesHelp = `Modes:
  1  goroutines                 one goroutine per image, no limit (default)
  2  os-threads                 one dedicated OS thread per image
  3  sequential                 plain loop on the calling goroutine
  4  fork-join                  work-stealing pool sized to the CPU count
  5  goroutines-priority-split  two halves, low and high priority, run at once

filterSpec is a pipe separated list of filters, e.g. "grayscale|gaussian:15",
or the EDN form "{:class origami.filters.NoOPFilter}". Default: noop.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// a second signal kills the process
		<-ctx.Done()
		stop()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

var modePattern = regexp.MustCompile(`^-?\d+$`)

// splitMode takes a leading numeric mode off args before flag parsing, so a
// negative code such as -1 is read as a mode and not as a shorthand flag.
func splitMode(args []string) (string, []string) {
	if len(args) > 0 && modePattern.MatchString(args[0]) {
		return args[0], args[1:]
	}
	return "", args
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	mode, rest := splitMode(args)
	if rest == nil {
		// cobra falls back to os.Args on nil
		rest = []string{}
	}
	cmd := newRootCmd(stdout, stderr, mode)
	cmd.SetArgs(rest)
	return cmd.ExecuteContext(ctx)
}

// newRootCmd builds the CLI. leadingMode is a mode argument already taken off
// the command line by splitMode, or "".
func newRootCmd(stdout, stderr io.Writer, leadingMode string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "loomy [mode] [filterSpec]",
		Short:        "Benchmark an image transform under different concurrency strategies",
		Long:         "Benchmark an image transform under different concurrency strategies.\n\n" + modesHelp,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if leadingMode != "" {
				args = append([]string{leadingMode}, args...)
			}
			mode, spec, err := parseArgs(args)
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), cfg, mode, spec, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("redis", "", "Redis address for run history (empty disables it)")

	f := cmd.Flags()
	f.String("images", "images", "directory with input images")
	f.String("target", "target", "directory for transformed images")
	f.Bool("write", true, "write transformed images to the target directory")
	f.Bool("debug", false, "log every processed image")
	f.StringSlice("extensions", []string{"png", "jpg"}, "file name suffixes to pick up (case-sensitive)")
	f.String("results-dir", "", "write a YAML results file to this directory")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")
	f.Int("workers", 0, "fork-join pool size (0 means the CPU count)")

	cmd.AddCommand(newHistoryCmd(stdout, stderr, &configPath))
	return cmd
}

// parseArgs reads [mode] [filterSpec]. A mode that is not a number is an
// error; trailing arguments are ignored.
func parseArgs(args []string) (int, string, error) {
	mode := strategy.DefaultMode
	if len(args) > 0 {
		m, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, "", fmt.Errorf("invalid mode %q: %w", args[0], err)
		}
		mode = m
	}
	var spec string
	if len(args) > 1 {
		spec = args[1]
	}
	return mode, spec, nil
}

func runBenchmark(ctx context.Context, cfg config.Config, mode int, spec string, stdout, stderr io.Writer) error {
	logging.Setup(cfg.LogLevel, stderr)
	logger := logging.WithComponent("loomy")

	f, err := filter.Parse(spec)
	if err != nil {
		return err
	}

	batch, err := coordinator.DiscoverBatch(cfg.ImagesDir, cfg.Extensions)
	if err != nil {
		logger.Error("cannot list images", "dir", cfg.ImagesDir, "err", err)
		return err
	}

	if cfg.Write {
		if err := os.MkdirAll(cfg.TargetDir, 0755); err != nil {
			return fmt.Errorf("failed to create target directory: %w", err)
		}
	}

	adapter := transform.NewAdapter(cfg.Transform(), f, logging.WithComponent("transform"))
	logger.Info("found images", "dir", cfg.ImagesDir, "count", len(batch), "filter", adapter.FilterName())
	reporter := stats.NewReporter(stdout)
	registry := strategy.DefaultRegistry(logging.WithComponent("strategy"), reporter)
	if cfg.Workers > 0 {
		registry.Register(strategy.ModeForkJoin, strategy.NewForkJoin(cfg.Workers, logging.WithComponent("forkjoin")))
	}
	recorder := stats.NewRecorder()
	coord := coordinator.NewCoordinator(registry, adapter, reporter,
		logging.WithComponent("coordinator"), coordinator.WithRecorder(recorder))

	metrics, results := coord.Run(ctx, mode, batch)
	reporter.Report(metrics)

	if metrics.Strategy == "invalid" {
		return nil
	}
	exportRun(ctx, cfg, stats.NewPerformanceData(uuid.NewString(), adapter.FilterName(), metrics, results), recorder)
	return nil
}

// exportRun writes the optional run artifacts. Failures are logged, never fatal.
func exportRun(ctx context.Context, cfg config.Config, run stats.PerformanceData, recorder *stats.Recorder) {
	logger := logging.WithComponent("export")

	if cfg.ResultsDir != "" {
		path, err := stats.WritePerformanceResults(cfg.ResultsDir, []stats.PerformanceData{run})
		if err != nil {
			logger.Warn("results file not written", "err", err)
		} else {
			logger.Info("results written", "path", path)
		}
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", "err", err)
		}
	}

	if cfg.RedisAddr != "" {
		// the run itself may have been interrupted; history should still land
		ctx = context.WithoutCancel(ctx)
		client, err := queue.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("run history unavailable", "err", err)
			return
		}
		defer client.Close()
		if err := client.PushRun(ctx, run); err != nil {
			logger.Warn("run not recorded", "err", err)
		}
	}
}

var errNoRedis = errors.New("run history needs a Redis address (--redis or redis_addr)")

func newHistoryCmd(stdout, stderr io.Writer, configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "Show recent runs recorded in Redis",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, stderr)
			if cfg.RedisAddr == "" {
				return errNoRedis
			}

			client, err := queue.NewRedisClient(cmd.Context(), cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(stdout, "%s  %-26s mode=%d images=%d failed=%d time=%dms avg=%d images/sec filter=%s\n",
					r.Timestamp.Format("2006-01-02 15:04:05"), r.Strategy, r.Mode,
					r.ImagesProcessed, r.Failed, r.TotalTimeMs, r.Throughput, r.Filter)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
