package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	requestErrorsTotal    *prometheus.CounterVec
	threadVisitsTotal     prometheus.Counter
	repliesWrittenTotal   *prometheus.CounterVec
	channelsCacheTotal    *prometheus.CounterVec
	liveSubscribers       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the forum.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_requests_total",
			Help: "Total number of forum API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_request_latency_seconds",
			Help:    "Latency distribution for forum API requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_request_errors_total",
			Help: "Total number of error responses returned by the forum API.",
		}, []string{"method", "route", "status"})

		threadVisitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forum_thread_visits_total",
			Help: "Thread detail reads recorded as visits.",
		})

		repliesWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_replies_written_total",
			Help: "Replies created or deleted.",
		}, []string{"op"})

		channelsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_channels_cache_total",
			Help: "Channel directory lookups by cache result.",
		}, []string{"result"})

		liveSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forum_live_subscribers",
			Help: "Websocket subscribers currently following a thread.",
		})

		prometheus.MustRegister(
			requestsTotal,
			requestLatencySeconds,
			requestErrorsTotal,
			threadVisitsTotal,
			repliesWrittenTotal,
			channelsCacheTotal,
			liveSubscribers,
		)
	})
}

// Requests exposes the request counter.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the request latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// Errors exposes the error response counter.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}

// ThreadVisits exposes the visit counter.
func ThreadVisits() prometheus.Counter {
	RegisterMetrics()
	return threadVisitsTotal
}

// RepliesWritten exposes the reply write counter, labelled "create" or "delete".
func RepliesWritten() *prometheus.CounterVec {
	RegisterMetrics()
	return repliesWrittenTotal
}

// ChannelsCache exposes the channel cache counter, labelled "hit", "miss" or "error".
func ChannelsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return channelsCacheTotal
}

// LiveSubscribers exposes the websocket subscriber gauge.
func LiveSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return liveSubscribers
}
