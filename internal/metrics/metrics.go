// Package metrics records Prometheus metrics for one ingestion run.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"eventsIngestion/internal/ingest"
	"eventsIngestion/internal/model"
	"eventsIngestion/internal/registry"
)

const namespace = "ingest"

// Recorder is an ingest.Observer backed by a private registry, so each run
// pushes only its own series.
type Recorder struct {
	ingest.NopObserver

	registry *prometheus.Registry

	EventsFetched     *prometheus.CounterVec
	MessagesPublished *prometheus.CounterVec
	SourceFailures    *prometheus.CounterVec
	RunDuration       prometheus.Gauge
	RegistryChildren  prometheus.Gauge
}

// NewRecorder registers the run metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		EventsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_fetched_total",
				Help:      "Chain events fetched per source role",
			},
			[]string{"role"},
		),
		MessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_published_total",
				Help:      "Broker messages published per source role",
			},
			[]string{"role"},
		),
		SourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_failures_total",
				Help:      "Sources that failed, by role and error kind",
			},
			[]string{"role", "kind"},
		),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		RegistryChildren: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_children",
			Help:      "Children in the registry snapshot",
		}),
	}
}

// Gatherer exposes the run registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Recorder) SourceFetched(src model.Source, events int) {
	r.EventsFetched.WithLabelValues(string(src.Role)).Add(float64(events))
}

func (r *Recorder) SourcePublished(src model.Source, messages int) {
	r.MessagesPublished.WithLabelValues(string(src.Role)).Add(float64(messages))
}

func (r *Recorder) SourceFailed(src model.Source, err error) {
	r.SourceFailures.WithLabelValues(string(src.Role), model.ErrorKind(err)).Inc()
}

func (r *Recorder) ChildrenResolved(snapshot registry.Snapshot) {
	r.RegistryChildren.Set(float64(snapshot.Len()))
}

func (r *Recorder) Finished(result ingest.Result) {
	r.RunDuration.Set(result.Duration.Seconds())
}

// Push sends the run metrics to a Pushgateway, grouped by run id.
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
