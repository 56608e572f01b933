package stats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blur-bench/pkg/common"
)

func metrics(elapsed time.Duration, items int) common.RunMetrics {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return common.RunMetrics{Strategy: "sequential", Mode: 3, Start: start, End: start.Add(elapsed), ItemCount: items}
}

func TestThroughput(t *testing.T) {
	assert.Equal(t, int64(5), Throughput(metrics(2000*time.Millisecond, 10)))
	assert.Equal(t, int64(3), Throughput(metrics(3000*time.Millisecond, 10)))
	assert.Equal(t, int64(0), Throughput(metrics(time.Second, 0)))
}

func TestThroughputZeroElapsedIsClamped(t *testing.T) {
	assert.Equal(t, int64(10000), Throughput(metrics(0, 10)))
	assert.Equal(t, int64(10000), Throughput(metrics(300*time.Microsecond, 10)))
}

func TestReporterSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Report(metrics(2000*time.Millisecond, 10))

	assert.Equal(t, "Time [2000 ms] / Images [ 10 ] / AVG [5 images/sec] \n", buf.String())
}

func TestReporterFailuresAndBanner(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Strategy("fork-join")
	r.HalfFinished(common.PriorityHigh, 4, 120*time.Millisecond)
	m := metrics(time.Second, 4)
	m.Failed = 1
	r.Report(m)
	r.InvalidMode(9)

	out := buf.String()
	assert.Contains(t, out, "fork-join\n")
	assert.Contains(t, out, "Processing with priority: 10 finished. [4 images] [120 ms]")
	assert.Contains(t, out, "Failed [1 of 4 images]")
	assert.Contains(t, out, "Default. Invalid test case (mode 9)")
}

func TestWriteAndReadPerformanceResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	m := metrics(1500*time.Millisecond, 3)
	results := []common.ExecutionResult{
		{Index: 0, SourcePath: "images/a.png", OutputPath: "target/a.png"},
		{Index: 1, SourcePath: "images/b.png", Err: errors.New("decode error: images/b.png: bad")},
		{Index: 2, SourcePath: "images/c.jpg", OutputPath: "target/c.jpg"},
	}
	m.Tally(results)
	pd := NewPerformanceData("run-1", "noop", m, results)

	path, err := WritePerformanceResults(dir, []PerformanceData{pd})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "loomy_2024-05-01_12-00-00.yaml"), path)

	got, err := ReadPerformanceResults(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, "sequential", got[0].Strategy)
	assert.Equal(t, 2, got[0].Succeeded)
	assert.Equal(t, 1, got[0].Failed)
	assert.Equal(t, int64(1500), got[0].TotalTimeMs)
	assert.InDelta(t, 500.0, got[0].AverageTimeMs, 0.001)
	assert.Equal(t, int64(2), got[0].Throughput)
	assert.Equal(t, []string{"target/a.png", "target/c.jpg"}, got[0].OutputPaths)
	assert.Len(t, got[0].Errors, 1)
}

func TestWritePerformanceResultsEmpty(t *testing.T) {
	path, err := WritePerformanceResults(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestRecorderObserve(t *testing.T) {
	r := NewRecorder()
	m := metrics(2*time.Second, 3)
	results := []common.ExecutionResult{
		{Index: 0, Elapsed: 10 * time.Millisecond},
		{Index: 1, Elapsed: 20 * time.Millisecond, Err: errors.New("x")},
		{Index: 2, Elapsed: 30 * time.Millisecond},
	}

	r.Observe(m, results)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.items.WithLabelValues("sequential", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.items.WithLabelValues("sequential", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runDuration.WithLabelValues("sequential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.throughput.WithLabelValues("sequential")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.itemDuration))
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(metrics(time.Second, 1), []common.ExecutionResult{{Index: 0}})

	path := filepath.Join(t.TempDir(), "loomy.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "loomy_items_total")
	assert.Contains(t, string(data), `strategy="sequential"`)
}
