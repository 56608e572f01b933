// Package strategy holds the concurrency policies the benchmark compares.
//
// Every Dispatcher runs each item of a batch through an Applier exactly once
// and returns one ExecutionResult per item, stored at the item's index.
// Completion order differs between strategies; the result slice never does.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"go-blur-bench/pkg/common"
	"go-blur-bench/pkg/transform"
)

// Applier transforms the image at path and returns the output identifier.
type Applier interface {
	Apply(path string) (string, error)
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(path string) (string, error)

func (f ApplierFunc) Apply(path string) (string, error) { return f(path) }

// Dispatcher runs a whole batch under one scheduling policy and blocks until every item finished.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, batch common.Batch, apply Applier) []common.ExecutionResult
}

// execute runs one item and never panics.
func execute(logger *slog.Logger, apply Applier, index int, item common.WorkItem) (res common.ExecutionResult) {
	start := time.Now()
	res = common.ExecutionResult{Index: index, SourcePath: item.SourcePath}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unit panic", "source", item.SourcePath, "panic", r, "stack", string(debug.Stack()))
			res.OutputPath = ""
			res.Err = &transform.ItemError{
				Kind: transform.ErrTransform,
				Path: item.SourcePath,
				Err:  fmt.Errorf("panic: %v", r),
			}
		}
		res.Elapsed = time.Since(start)
	}()
	res.OutputPath, res.Err = apply.Apply(item.SourcePath)
	if res.Err != nil {
		logger.Error("item failed", "index", index, "source", item.SourcePath, "err", res.Err)
	}
	return res
}

// await blocks until done is closed. A cancelled ctx is logged as an
// interrupted wait, and the wait goes on so no result is lost.
func await(ctx context.Context, logger *slog.Logger, strategy string, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
		logger.Warn("interrupted wait, still joining outstanding units", "strategy", strategy, "err", ctx.Err())
	}
	<-done
}

// Registry maps mode codes to dispatchers.
type Registry struct {
	byMode map[int]Dispatcher
}

func NewRegistry() *Registry {
	return &Registry{byMode: make(map[int]Dispatcher)}
}

// Register binds mode to d, replacing any previous binding.
func (r *Registry) Register(mode int, d Dispatcher) {
	r.byMode[mode] = d
}

func (r *Registry) Lookup(mode int) (Dispatcher, bool) {
	d, ok := r.byMode[mode]
	return d, ok
}

// Modes returns the registered mode codes in ascending order.
func (r *Registry) Modes() []int {
	modes := make([]int, 0, len(r.byMode))
	for m := range r.byMode {
		modes = append(modes, m)
	}
	sort.Ints(modes)
	return modes
}

const (
	ModeUnbounded     = 1
	ModeOSThreads     = 2
	ModeSequential    = 3
	ModeForkJoin      = 4
	ModePrioritySplit = 5

	DefaultMode = ModeUnbounded
)

// DefaultRegistry wires the five benchmark strategies to their mode codes.
// Per-half completion lines of the priority split go to report.
func DefaultRegistry(logger *slog.Logger, report HalfReporter) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := NewRegistry()
	r.Register(ModeUnbounded, NewUnbounded(logger))
	r.Register(ModeOSThreads, NewOSThreads(logger))
	r.Register(ModeSequential, NewSequential(logger))
	r.Register(ModeForkJoin, NewForkJoin(0, logger))
	r.Register(ModePrioritySplit, NewPrioritySplit(logger, report))
	return r
}
