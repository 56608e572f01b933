package strategy

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"go-blur-bench/pkg/common"
)

// HalfReporter is told when one half of a priority split has finished.
type HalfReporter interface {
	HalfFinished(priority common.Priority, items int, elapsed time.Duration)
}

// PrioritySplit runs the first ceil(n/2) items tagged low priority and the
// rest tagged high priority, both halves at once under Unbounded.
type PrioritySplit struct {
	inner  *Unbounded
	logger *slog.Logger
	report HalfReporter
}

func NewPrioritySplit(logger *slog.Logger, report HalfReporter) *PrioritySplit {
	return &PrioritySplit{inner: NewUnbounded(logger), logger: logger, report: report}
}

func (p *PrioritySplit) Name() string { return "goroutines-priority-split" }

func (p *PrioritySplit) Dispatch(ctx context.Context, batch common.Batch, apply Applier) []common.ExecutionResult {
	first, second := common.SplitHalves(batch)
	results := make([]common.ExecutionResult, len(batch))

	var g errgroup.Group
	g.Go(func() error {
		copy(results[:len(first)], p.runHalf(ctx, first, 0, common.PriorityLow, apply))
		return nil
	})
	g.Go(func() error {
		copy(results[len(first):], p.runHalf(ctx, second, len(first), common.PriorityHigh, apply))
		return nil
	})
	// join barrier only: item failures live in results, so no half returns an error
	_ = g.Wait()
	return results
}

func (p *PrioritySplit) runHalf(ctx context.Context, half common.Batch, offset int, priority common.Priority, apply Applier) []common.ExecutionResult {
	start := time.Now()
	tagged := make(common.Batch, len(half))
	for i, item := range half {
		tagged[i] = item.WithPriority(priority)
	}

	results := p.inner.Dispatch(ctx, tagged, apply)
	for i := range results {
		results[i].Index += offset
	}

	elapsed := time.Since(start)
	if p.report != nil {
		p.report.HalfFinished(priority, len(half), elapsed)
	} else {
		p.logger.Info("priority half finished", "priority", int(priority), "items", len(half), "elapsed", elapsed)
	}
	return results
}
