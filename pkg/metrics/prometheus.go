package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	providerErrs  *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	lastRunTstamp prometheus.Gauge
}

// New creates a recorder registered on the default registry, so the ops
// server's /metrics endpoint exposes it alongside Go runtime metrics.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_runs_total",
				Help: "Generation runs by mode and result",
			},
			[]string{"mode", "result"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_signals_emitted_total",
				Help: "Signals emitted by category",
			},
			[]string{"category"},
		),
		suppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_candidates_suppressed_total",
				Help: "Candidates not emitted, by reason",
			},
			[]string{"reason"},
		),
		providerErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_provider_errors_total",
				Help: "Failed provider calls",
			},
			[]string{"provider"},
		),
		stageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalforge_stage_duration_seconds",
				Help:    "Duration of run stages in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		lastRunTstamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalforge_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		),
	}
	if reg != nil {
		for _, c := range r.collectors() {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					panic(err)
				}
			}
		}
	}
	return r
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.runsTotal, r.signalsTotal, r.suppressed, r.providerErrs, r.stageLatency, r.lastRunTstamp,
	}
}

func (r *Recorder) RecordRun(mode, result string) {
	r.runsTotal.WithLabelValues(mode, result).Inc()
}

func (r *Recorder) RecordSignal(category string) {
	r.signalsTotal.WithLabelValues(category).Inc()
}

func (r *Recorder) RecordSuppressed(reason string) {
	r.suppressed.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrs.WithLabelValues(provider).Inc()
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordLastRun(t time.Time) {
	r.lastRunTstamp.Set(float64(t.Unix()))
}

// Push sends the current values to a Prometheus Pushgateway. One-shot runs
// exit before a scrape could happen, so they push instead.
func (r *Recorder) Push(url, job string) error {
	p := push.New(url, job)
	for _, c := range r.collectors() {
		p = p.Collector(c)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	return nil
}
