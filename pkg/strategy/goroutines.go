package strategy

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"go-blur-bench/pkg/common"
)

// Unbounded starts one goroutine per item with no ceiling and joins them all.
type Unbounded struct {
	logger *slog.Logger
}

func NewUnbounded(logger *slog.Logger) *Unbounded {
	return &Unbounded{logger: logger}
}

func (u *Unbounded) Name() string { return "goroutines" }

func (u *Unbounded) Dispatch(ctx context.Context, batch common.Batch, apply Applier) []common.ExecutionResult {
	results := make([]common.ExecutionResult, len(batch))
	var wg sync.WaitGroup
	wg.Add(len(batch))
	for i, item := range batch {
		go func(i int, item common.WorkItem) {
			defer wg.Done()
			yieldFor(item.Priority)
			results[i] = execute(u.logger, apply, i, item)
		}(i, item)
	}
	await(ctx, u.logger, u.Name(), joined(&wg))
	return results
}

// OSThreads gives every item a goroutine wired to its own OS thread. The
// thread stays locked until the goroutine exits, so the runtime tears it down
// instead of reusing it.
type OSThreads struct {
	logger *slog.Logger
}

func NewOSThreads(logger *slog.Logger) *OSThreads {
	return &OSThreads{logger: logger}
}

func (o *OSThreads) Name() string { return "os-threads" }

func (o *OSThreads) Dispatch(ctx context.Context, batch common.Batch, apply Applier) []common.ExecutionResult {
	results := make([]common.ExecutionResult, len(batch))
	var wg sync.WaitGroup
	wg.Add(len(batch))
	for i, item := range batch {
		go func(i int, item common.WorkItem) {
			defer wg.Done()
			// no UnlockOSThread: the thread exits with the goroutine
			runtime.LockOSThread()
			results[i] = execute(o.logger, apply, i, item)
		}(i, item)
	}
	await(ctx, o.logger, o.Name(), joined(&wg))
	return results
}

func joined(wg *sync.WaitGroup) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// yieldFor applies the advisory priority hint: low priority units step aside once before starting.
func yieldFor(p common.Priority) {
	if p != common.PriorityNone && p < common.PriorityHigh {
		runtime.Gosched()
	}
}
