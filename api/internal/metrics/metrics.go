package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"icf-classifier/api/internal/pipeline"
)

var (
	once sync.Once

	// ClassifyTotal counts finished runs by result: "ok" or the error kind.
	ClassifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "icf",
		Subsystem: "classifier",
		Name:      "runs_total",
		Help:      "Total number of classification runs, labeled by result.",
	}, []string{"result"})

	// StageDuration is time spent in each pipeline state.
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "icf",
		Subsystem: "classifier",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
	}, []string{"stage"})

	ImagesNormalized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "icf",
		Subsystem: "classifier",
		Name:      "images_normalized_total",
		Help:      "Total number of images normalized before a model call.",
	})

	// InFlight is the number of runs between Validating and Idle.
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "icf",
		Subsystem: "classifier",
		Name:      "runs_in_flight",
		Help:      "Current number of classification runs in progress.",
	})
)

// Register registers classifier metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ClassifyTotal,
			StageDuration,
			ImagesNormalized,
			InFlight,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Observer feeds pipeline transitions into the collectors above.
type Observer struct{}

var _ pipeline.Observer = Observer{}

func (Observer) Observe(t pipeline.Transition) {
	if t.From != pipeline.Idle {
		StageDuration.WithLabelValues(t.From.String()).Observe(t.Elapsed.Seconds())
	}
	if t.Images > 0 {
		ImagesNormalized.Add(float64(t.Images))
	}
	switch t.To {
	case pipeline.Validating:
		InFlight.Inc()
	case pipeline.Rendered:
		ClassifyTotal.WithLabelValues("ok").Inc()
	case pipeline.Failed:
		ClassifyTotal.WithLabelValues(string(t.Kind)).Inc()
	case pipeline.Idle:
		InFlight.Dec()
	}
}
