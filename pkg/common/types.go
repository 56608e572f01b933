package common

import (
	"time"
)

// Priority is an advisory scheduling hint attached to a WorkItem.
type Priority int

const (
	PriorityNone Priority = 0
	PriorityLow  Priority = 1
	PriorityHigh Priority = 10
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "custom"
	}
}

// WorkItem references one input image. It is never mutated once built.
type WorkItem struct {
	SourcePath string   `json:"source_path" yaml:"source_path"`
	Priority   Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// WithPriority returns a copy of the item tagged with p.
func (w WorkItem) WithPriority(p Priority) WorkItem {
	w.Priority = p
	return w
}

// Batch is the ordered set of items for one run. Readers share it concurrently.
type Batch []WorkItem

func NewBatch(paths []string) Batch {
	batch := make(Batch, len(paths))
	for i, p := range paths {
		batch[i] = WorkItem{SourcePath: p}
	}
	return batch
}

func (b Batch) Paths() []string {
	paths := make([]string, len(b))
	for i, item := range b {
		paths[i] = item.SourcePath
	}
	return paths
}

// SplitHalves partitions b into two contiguous halves, the first holding ceil(n/2) items.
func SplitHalves(b Batch) (Batch, Batch) {
	mid := (len(b) + 1) / 2
	return b[:mid:mid], b[mid:]
}

// ExecutionResult is the outcome of the single attempt made for the item at Index.
type ExecutionResult struct {
	Index      int           `json:"index"`
	SourcePath string        `json:"source_path"`
	OutputPath string        `json:"output_path,omitempty"`
	Err        error         `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (r ExecutionResult) OK() bool {
	return r.Err == nil
}

// RunMetrics are captured by the coordinator around one dispatch.
type RunMetrics struct {
	Strategy  string    `json:"strategy" yaml:"strategy"`
	Mode      int       `json:"mode" yaml:"mode"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
	ItemCount int       `json:"item_count" yaml:"item_count"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
}

func (m RunMetrics) Elapsed() time.Duration {
	return m.End.Sub(m.Start)
}

func (m RunMetrics) ElapsedMs() int64 {
	return m.Elapsed().Milliseconds()
}

// Tally fills Succeeded and Failed from results.
func (m *RunMetrics) Tally(results []ExecutionResult) {
	m.Succeeded, m.Failed = 0, 0
	for _, r := range results {
		if r.OK() {
			m.Succeeded++
		} else {
			m.Failed++
		}
	}
}
