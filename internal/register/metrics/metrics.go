package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the registration pipeline.
type Metrics struct {
	registrations *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	filesUploaded prometheus.Counter
	uploadBytes   prometheus.Counter
	duration      prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the metrics against an explicit registerer so tests can use
// isolated registries.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careershot_registrations_total",
			Help: "Registrations by terminal outcome.",
		}, []string{"outcome"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careershot_registration_stage_failures_total",
			Help: "Registration failures by the stage they failed at.",
		}, []string{"stage"}),
		filesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "careershot_files_uploaded_total",
			Help: "Files durably written to the object store.",
		}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "careershot_upload_bytes_total",
			Help: "Bytes durably written to the object store.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careershot_registration_duration_seconds",
			Help:    "End-to-end registration latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveSuccess records a completed registration.
func (m *Metrics) ObserveSuccess(elapsed time.Duration) {
	m.registrations.WithLabelValues("success").Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a failed registration and its failing stage.
func (m *Metrics) ObserveFailure(stage string, elapsed time.Duration) {
	m.registrations.WithLabelValues("failure").Inc()
	m.stageFailures.WithLabelValues(stage).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveUpload records one durably stored file.
func (m *Metrics) ObserveUpload(bytes int64) {
	m.filesUploaded.Inc()
	m.uploadBytes.Add(float64(bytes))
}
