package strategy

import (
	"context"
	"log/slog"

	"go-blur-bench/pkg/common"
	"go-blur-bench/pkg/forkjoin"
)

// ForkJoin submits every item to a work-stealing pool sized to the hardware
// parallelism, shuts the pool down and waits for it to drain.
type ForkJoin struct {
	workers int
	logger  *slog.Logger
}

// NewForkJoin returns a ForkJoin strategy; workers <= 0 means runtime.NumCPU().
func NewForkJoin(workers int, logger *slog.Logger) *ForkJoin {
	return &ForkJoin{workers: workers, logger: logger}
}

func (f *ForkJoin) Name() string { return "fork-join" }

func (f *ForkJoin) Dispatch(ctx context.Context, batch common.Batch, apply Applier) []common.ExecutionResult {
	results := make([]common.ExecutionResult, len(batch))
	pool := forkjoin.New(f.workers, f.logger)

	for i, item := range batch {
		err := pool.Submit(func() {
			results[i] = execute(f.logger, apply, i, item)
		})
		if err != nil {
			results[i] = common.ExecutionResult{Index: i, SourcePath: item.SourcePath, Err: err}
		}
	}
	pool.Shutdown()

	// no timeout: the pool terminates once the last queued task ran
	await(ctx, f.logger, f.Name(), pool.Done())

	st := pool.Stats()
	f.logger.Debug("fork-join pool drained",
		"workers", st.Workers, "executed", st.Executed, "stolen", st.Stolen, "panics", st.Panics)
	return results
}
