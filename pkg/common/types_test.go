package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticBatch(n int) Batch {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("images/img%02d.png", i)
	}
	return NewBatch(paths)
}

func TestSplitHalvesSizesAndUnion(t *testing.T) {
	for n := 0; n <= 11; n++ {
		batch := syntheticBatch(n)
		first, second := SplitHalves(batch)

		assert.Equal(t, (n+1)/2, len(first), "n=%d", n)
		assert.Equal(t, n/2, len(second), "n=%d", n)

		union := append(append(Batch{}, first...), second...)
		assert.ElementsMatch(t, batch, union, "n=%d", n)
	}
}

func TestSplitHalvesAppendDoesNotAlias(t *testing.T) {
	batch := syntheticBatch(4)
	first, second := SplitHalves(batch)

	_ = append(first, WorkItem{SourcePath: "extra.png"})
	assert.Equal(t, "images/img02.png", second[0].SourcePath)
}

func TestWithPriorityReturnsCopy(t *testing.T) {
	item := WorkItem{SourcePath: "a.png"}
	tagged := item.WithPriority(PriorityHigh)

	assert.Equal(t, PriorityNone, item.Priority)
	assert.Equal(t, PriorityHigh, tagged.Priority)
	assert.Equal(t, "high", tagged.Priority.String())
	assert.Equal(t, "low", PriorityLow.String())
}

func TestRunMetricsTally(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := RunMetrics{Start: start, End: start.Add(1500 * time.Millisecond), ItemCount: 3}
	m.Tally([]ExecutionResult{
		{Index: 0},
		{Index: 1, Err: errors.New("boom")},
		{Index: 2},
	})

	require.Equal(t, 2, m.Succeeded)
	require.Equal(t, 1, m.Failed)
	assert.Equal(t, int64(1500), m.ElapsedMs())
}

func TestBatchPaths(t *testing.T) {
	batch := NewBatch([]string{"x.png", "y.jpg"})
	assert.Equal(t, []string{"x.png", "y.jpg"}, batch.Paths())
}
