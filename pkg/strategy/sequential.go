package strategy

import (
	"context"
	"log/slog"

	"go-blur-bench/pkg/common"
)

// Sequential runs the batch in order on the calling goroutine.
type Sequential struct {
	logger *slog.Logger
}

func NewSequential(logger *slog.Logger) *Sequential {
	return &Sequential{logger: logger}
}

func (s *Sequential) Name() string { return "sequential" }

func (s *Sequential) Dispatch(_ context.Context, batch common.Batch, apply Applier) []common.ExecutionResult {
	results := make([]common.ExecutionResult, len(batch))
	for i, item := range batch {
		results[i] = execute(s.logger, apply, i, item)
	}
	return results
}
