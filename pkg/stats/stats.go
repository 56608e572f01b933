package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"go-blur-bench/pkg/common"
)

// PerformanceData holds timing and metadata for one strategy run
type PerformanceData struct {
	RunID           string    `yaml:"run_id" json:"run_id"`
	Strategy        string    `yaml:"strategy" json:"strategy"`
	Mode            int       `yaml:"mode" json:"mode"`
	Filter          string    `yaml:"filter" json:"filter"`
	ImagesProcessed int       `yaml:"images_processed" json:"images_processed"`
	Succeeded       int       `yaml:"succeeded" json:"succeeded"`
	Failed          int       `yaml:"failed" json:"failed"`
	TotalTimeMs     int64     `yaml:"total_time_ms" json:"total_time_ms"`
	AverageTimeMs   float64   `yaml:"average_time_ms" json:"average_time_ms"`
	Throughput      int64     `yaml:"throughput_images_per_sec" json:"throughput_images_per_sec"`
	Timestamp       time.Time `yaml:"timestamp" json:"timestamp"`

	InputPaths  []string `yaml:"input_paths,omitempty" json:"-"`
	OutputPaths []string `yaml:"output_paths,omitempty" json:"-"`
	Errors      []string `yaml:"errors,omitempty" json:"errors,omitempty"`
}

// NewPerformanceData summarizes a run.
func NewPerformanceData(runID, filterName string, m common.RunMetrics, results []common.ExecutionResult) PerformanceData {
	pd := PerformanceData{
		RunID:           runID,
		Strategy:        m.Strategy,
		Mode:            m.Mode,
		Filter:          filterName,
		ImagesProcessed: m.ItemCount,
		Succeeded:       m.Succeeded,
		Failed:          m.Failed,
		TotalTimeMs:     m.ElapsedMs(),
		Throughput:      Throughput(m),
		Timestamp:       m.Start,
	}
	if m.ItemCount > 0 {
		pd.AverageTimeMs = float64(m.Elapsed().Microseconds()) / 1000.0 / float64(m.ItemCount)
	}
	for _, r := range results {
		pd.InputPaths = append(pd.InputPaths, r.SourcePath)
		if r.OK() {
			pd.OutputPaths = append(pd.OutputPaths, r.OutputPath)
		} else {
			pd.Errors = append(pd.Errors, r.Err.Error())
		}
	}
	return pd
}

type resultsFile struct {
	Timestamp time.Time         `yaml:"timestamp"`
	Runs      []PerformanceData `yaml:"runs"`
}

// WritePerformanceResults writes a single combined results file
func WritePerformanceResults(dir string, results []PerformanceData) (string, error) {
	return WritePerformanceResultsWithPrefix(dir, results, "loomy_")
}

// WritePerformanceResultsWithPrefix writes results file with custom prefix
func WritePerformanceResultsWithPrefix(dir string, results []PerformanceData, prefix string) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	// Use timestamp from first result
	timestamp := results[0].Timestamp.Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("%s%s.yaml", prefix, timestamp))

	data, err := yaml.Marshal(resultsFile{Timestamp: results[0].Timestamp, Runs: results})
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}
	return path, nil
}

// ReadPerformanceResults loads a file written by WritePerformanceResults.
func ReadPerformanceResults(path string) ([]PerformanceData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f resultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode results file %s: %w", path, err)
	}
	return f.Runs, nil
}
