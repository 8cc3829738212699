// Package metrics exposes Prometheus collectors for the notification lifecycle.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localnotify",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Number of notification state transitions.",
		}, []string{"from", "to"},
	)
	platformFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localnotify",
			Subsystem: "platform",
			Name:      "failures_total",
			Help:      "Number of absorbed platform collaborator failures.",
		}, []string{"collaborator", "op"},
	)
	corruptRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "localnotify",
			Subsystem: "store",
			Name:      "corrupt_records_total",
			Help:      "Number of persisted records that failed to decode.",
		},
	)
	badgeValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "localnotify",
			Subsystem: "badge",
			Name:      "value",
			Help:      "Last badge number applied.",
		},
	)
	reconcileRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "localnotify",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Number of reconciliation passes.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{transitions, platformFailures, corruptRecords, badgeValue, reconcileRuns}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// The helpers below no-op until Register has been called.

func IncTransition(from, to string) {
	if regOK.Load() {
		transitions.WithLabelValues(from, to).Inc()
	}
}

func IncPlatformFailure(collaborator, op string) {
	if regOK.Load() {
		platformFailures.WithLabelValues(collaborator, op).Inc()
	}
}

func IncCorruptRecord() {
	if regOK.Load() {
		corruptRecords.Inc()
	}
}

func SetBadge(n int) {
	if regOK.Load() {
		badgeValue.Set(float64(n))
	}
}

func IncReconcile() {
	if regOK.Load() {
		reconcileRuns.Inc()
	}
}
