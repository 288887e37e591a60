package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the Prometheus counters mirroring a Recorder.
type Collectors struct {
	messagesSent         prometheus.Counter
	messagesReceived     prometheus.Counter
	reconnectAttempts    prometheus.Counter
	successfulReconnects prometheus.Counter
	heartbeatFailures    prometheus.Counter
}

// NewCollectors registers per-connection counters with the given
// registry, labelled by connection id. A nil registry uses the
// default registerer.
func NewCollectors(registry prometheus.Registerer, connectionID string) *Collectors {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	labels := prometheus.Labels{"connection_id": connectionID}

	return &Collectors{
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "pushgate",
			Name:        "messages_sent_total",
			Help:        "Total messages sent on this connection",
			ConstLabels: labels,
		}),
		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "pushgate",
			Name:        "messages_received_total",
			Help:        "Total messages received on this connection",
			ConstLabels: labels,
		}),
		reconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "pushgate",
			Name:        "reconnect_attempts_total",
			Help:        "Total reconnection attempts",
			ConstLabels: labels,
		}),
		successfulReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "pushgate",
			Name:        "reconnects_succeeded_total",
			Help:        "Total successful reconnections",
			ConstLabels: labels,
		}),
		heartbeatFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "pushgate",
			Name:        "heartbeat_failures_total",
			Help:        "Total heartbeat failures",
			ConstLabels: labels,
		}),
	}
}
