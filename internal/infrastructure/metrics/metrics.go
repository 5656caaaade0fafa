// Package metrics provides Prometheus metrics for the messaging-api service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route labels for feed event routing outcomes.
const (
	RouteSelfEcho       = "self_echo"
	RouteTranscript     = "transcript"
	RouteUnread         = "unread"
	RouteAdopted        = "adopted"
	RouteDuplicate      = "duplicate"
	RouteDropped        = "dropped"
	RouteIntegrityFault = "integrity_fault"
)

var (
	// AttachedClients tracks the number of attached messaging clients.
	AttachedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "messaging_attached_clients",
			Help: "Number of currently attached messaging clients",
		},
	)

	// FeedEventsRouted tracks routed change-feed events by outcome.
	FeedEventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_feed_events_routed_total",
			Help: "Total change-feed events processed, labelled by routing outcome",
		},
		[]string{"route"},
	)

	// MessagesSent tracks messages inserted by this service.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_sent_total",
			Help: "Total messages sent through this service",
		},
	)

	// HistoryFetchDuration tracks conversation history fetch time.
	HistoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_history_fetch_duration_seconds",
			Help:    "Duration of conversation history fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// FeedNotifications tracks raw notifications received from the listener.
	FeedNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_feed_notifications_total",
			Help: "Total raw notifications received from the message change feed",
		},
	)

	// FeedDecodeErrors tracks malformed feed payloads.
	FeedDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_feed_decode_errors_total",
			Help: "Total change-feed payloads that failed to decode",
		},
	)
)

// RecordRoute records one routed feed event.
func RecordRoute(route string) {
	FeedEventsRouted.WithLabelValues(route).Inc()
}

// RecordClientAttached increments the attached client gauge.
func RecordClientAttached() {
	AttachedClients.Inc()
}

// RecordClientDetached decrements the attached client gauge.
func RecordClientDetached() {
	AttachedClients.Dec()
}

// RecordMessageSent increments the sent message counter.
func RecordMessageSent() {
	MessagesSent.Inc()
}

// RecordFeedNotification counts one raw feed notification.
func RecordFeedNotification() {
	FeedNotifications.Inc()
}

// RecordFeedDecodeError counts one undecodable feed payload.
func RecordFeedDecodeError() {
	FeedDecodeErrors.Inc()
}

// HistoryFetchTimer observes the duration of one history fetch.
type HistoryFetchTimer struct {
	start time.Time
}

// StartHistoryFetch begins timing a history fetch.
func StartHistoryFetch() *HistoryFetchTimer {
	return &HistoryFetchTimer{start: time.Now()}
}

// Done records the fetch duration with its result label.
func (t *HistoryFetchTimer) Done(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	HistoryFetchDuration.WithLabelValues(result).Observe(time.Since(t.start).Seconds())
}
