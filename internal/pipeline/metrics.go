package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineMetricsOnce sync.Once
	recordsIngested     prometheus.Counter
	recordsDeduped      prometheus.Counter
	recordsSkipped      prometheus.Counter
	windowsEmitted      prometheus.Counter
	runDuration         prometheus.Histogram
)

func initPipelineMetrics() {
	recordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbuzz_records_ingested_total",
		Help: "Records accepted into pipeline runs after deduplication",
	})
	recordsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbuzz_records_deduped_total",
		Help: "Records dropped as duplicate ids within a batch",
	})
	recordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbuzz_records_skipped_total",
		Help: "Records excluded from aggregation for missing timestamps",
	})
	windowsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbuzz_windows_emitted_total",
		Help: "Aggregate windows produced by pipeline runs",
	})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketbuzz_run_duration_seconds",
		Help:    "Wall time of whole pipeline runs",
		Buckets: prometheus.DefBuckets,
	})
}
