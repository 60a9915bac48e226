package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	intentsTotal         *prometheus.CounterVec
	sessionTransitions   *prometheus.CounterVec
	voiceRecordingsTotal *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
	eventSubscribers     prometheus.Gauge
	uploadRejectedTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the client core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_http_requests_total",
			Help: "Total number of bridge requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socium_http_latency_seconds",
			Help:    "Latency distribution for bridge requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_http_errors_total",
			Help: "Total number of error responses returned by the bridge.",
		}, []string{"method", "route", "status"})

		intentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_intents_total",
			Help: "User intents applied to section controllers, by outcome.",
		}, []string{"section", "action", "outcome"})

		sessionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_session_transitions_total",
			Help: "Session gate status transitions.",
		}, []string{"from", "to"})

		voiceRecordingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_voice_recordings_total",
			Help: "Voice recordings by final state.",
		}, []string{"state"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_events_published_total",
			Help: "State change events published, by sink.",
		}, []string{"sink"})

		eventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socium_event_subscribers",
			Help: "Currently connected event stream subscribers.",
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socium_upload_rejected_total",
			Help: "Media uploads rejected, by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			intentsTotal,
			sessionTransitions,
			voiceRecordingsTotal,
			eventsPublishedTotal,
			eventSubscribers,
			uploadRejectedTotal,
		)
	})
}

// HTTPRequests exposes the counter for bridge requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for bridge requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for bridge error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Intents exposes the intent counter.
func Intents() *prometheus.CounterVec {
	RegisterMetrics()
	return intentsTotal
}

// SessionTransitions exposes the session transition counter.
func SessionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionTransitions
}

// VoiceRecordings exposes the voice recording counter.
func VoiceRecordings() *prometheus.CounterVec {
	RegisterMetrics()
	return voiceRecordingsTotal
}

// EventsPublished exposes the published events counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EventSubscribers exposes the subscriber gauge.
func EventSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return eventSubscribers
}

// UploadRejected exposes the rejected upload counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}
