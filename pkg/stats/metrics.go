package stats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"go-blur-bench/pkg/common"
)

// Recorder keeps Prometheus metrics for benchmark runs in its own registry.
type Recorder struct {
	registry     *prometheus.Registry
	items        *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	runDuration  *prometheus.GaugeVec
	throughput   *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loomy_items_total",
			Help: "Images dispatched, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		itemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loomy_item_duration_seconds",
			Help:    "Time spent transforming a single image.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"strategy"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loomy_run_duration_seconds",
			Help: "Wall clock time of the last run.",
		}, []string{"strategy"}),
		throughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loomy_throughput_images_per_second",
			Help: "Throughput of the last run.",
		}, []string{"strategy"}),
	}
	r.registry.MustRegister(r.items, r.itemDuration, r.runDuration, r.throughput)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one finished run.
func (r *Recorder) Observe(m common.RunMetrics, results []common.ExecutionResult) {
	for _, res := range results {
		outcome := "success"
		if !res.OK() {
			outcome = "failure"
		}
		r.items.WithLabelValues(m.Strategy, outcome).Inc()
		r.itemDuration.WithLabelValues(m.Strategy).Observe(res.Elapsed.Seconds())
	}
	r.runDuration.WithLabelValues(m.Strategy).Set(m.Elapsed().Seconds())
	r.throughput.WithLabelValues(m.Strategy).Set(float64(Throughput(m)))
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
