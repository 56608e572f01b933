package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-blur-bench/pkg/common"
	"go-blur-bench/pkg/stats"
	"go-blur-bench/pkg/strategy"
)

// ErrDirectoryMissing means the image directory does not exist or cannot be listed.
var ErrDirectoryMissing = errors.New("image directory missing")

// DefaultSuffixes are matched against the end of each file name, case-sensitively.
var DefaultSuffixes = []string{"png", "jpg"}

// DiscoverBatch lists the files in dir whose name ends with one of suffixes.
// The batch is ordered by file name.
func DiscoverBatch(dir string, suffixes []string) (common.Batch, error) {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryMissing, dir, err)
	}

	// os.ReadDir already sorts by name
	var paths []string
	for _, entry := range entries {
		if !matches(entry.Name(), suffixes) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isFile(entry, path) {
			continue
		}
		paths = append(paths, path)
	}
	return common.NewBatch(paths), nil
}

func matches(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func isFile(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}

type Coordinator struct {
	registry *strategy.Registry
	applier  strategy.Applier
	reporter *stats.Reporter
	recorder *stats.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Coordinator)

// WithRecorder feeds every finished run into r.
func WithRecorder(r *stats.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(registry *strategy.Registry, applier strategy.Applier, reporter *stats.Reporter, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		registry: registry,
		applier:  applier,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run dispatches batch under the strategy registered for mode and times it.
// An unknown mode is reported and nothing is dispatched.
func (c *Coordinator) Run(ctx context.Context, mode int, batch common.Batch) (common.RunMetrics, []common.ExecutionResult) {
	metrics := common.RunMetrics{Mode: mode, ItemCount: len(batch)}

	d, ok := c.registry.Lookup(mode)
	if !ok {
		c.reporter.InvalidMode(mode)
		c.logger.Warn("unknown mode, nothing dispatched", "mode", mode, "known", c.registry.Modes())
		metrics.Strategy = "invalid"
		metrics.Start = c.now()
		metrics.End = metrics.Start
		return metrics, nil
	}

	metrics.Strategy = d.Name()
	c.reporter.Strategy(d.Name())
	c.logger.Info("dispatching batch", "strategy", d.Name(), "mode", mode, "items", len(batch))

	metrics.Start = c.now()
	results := d.Dispatch(ctx, batch, c.applier)
	metrics.End = c.now()

	metrics.Tally(results)
	c.logger.Info("batch complete",
		"strategy", d.Name(),
		"elapsed_ms", metrics.ElapsedMs(),
		"succeeded", metrics.Succeeded,
		"failed", metrics.Failed)

	if c.recorder != nil {
		c.recorder.Observe(metrics, results)
	}
	return metrics, results
}
