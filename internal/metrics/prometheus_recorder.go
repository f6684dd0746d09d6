package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "initscript"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	runOutcome    *prom.CounterVec
	filesWritten  prom.Counter
	chunksIgnored prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total duration of a generation run",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"}),
		filesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Init script files written",
		}),
		chunksIgnored: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ignored_total",
			Help:      "Chunks skipped because they are listed in ignored_chunks",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.runOutcome, pr.filesWritten, pr.chunksIgnored)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesWritten(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesWritten.Add(float64(n))
}

func (p *PrometheusRecorder) AddChunksIgnored(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.chunksIgnored.Add(float64(n))
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	return prom.WriteToTextfile(path, g)
}
