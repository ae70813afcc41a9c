// Package metrics defines the Prometheus collectors for the shell and
// its server surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cijokb/friendlypix-web-react/internal/store"
)

// Store metrics
var (
	// StoreDispatchesTotal tracks dispatched actions by action type.
	StoreDispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_dispatches_total",
			Help: "Total dispatched store actions by action type",
		},
		[]string{"type"},
	)

	// StoreListeners tracks the current number of store listeners.
	StoreListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_listeners_current",
			Help: "Current number of store listeners",
		},
	)

	// AuthReadinessSeconds tracks how long bootstrap waited on the
	// auth-readiness gate.
	AuthReadinessSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_readiness_wait_seconds",
			Help:    "Time spent waiting for initial auth resolution",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Session record metrics
var (
	// SessionRecordOpsTotal tracks session record operations by
	// operation and status.
	SessionRecordOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_record_operations_total",
			Help: "Total session record operations by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Broadcast metrics
var (
	// BroadcastConnectedClients tracks currently connected state-stream
	// clients.
	BroadcastConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_connected_clients",
			Help: "Currently connected state-stream clients",
		},
	)

	// BroadcastActivePages tracks pages with at least one client.
	BroadcastActivePages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_active_pages",
			Help: "Pages with at least one connected client",
		},
	)

	// BroadcastSlowClientsEvicted counts clients dropped for not
	// keeping up with state updates.
	BroadcastSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_slow_clients_evicted_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// BroadcastStopTimeoutsTotal counts shutdowns that exceeded the
	// broadcaster stop timeout.
	BroadcastStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_stop_timeouts_total",
			Help: "Broadcaster shutdowns that hit the stop timeout",
		},
	)
)

// StoreMiddleware counts every plain action flowing through the store.
func StoreMiddleware() store.Middleware {
	return func(s *store.Store, next store.Dispatcher) store.Dispatcher {
		return func(a store.Action) {
			StoreDispatchesTotal.WithLabelValues(a.Type).Inc()
			next(a)
			StoreListeners.Set(float64(s.ListenerCount()))
		}
	}
}
