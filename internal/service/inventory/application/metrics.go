// internal/service/inventory/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 生命周期结果计数器，通过 /metrics 暴露。
var (
	reservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_reservations_created_total",
		Help: "Number of reservations successfully created.",
	})
	reservationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_reservations_cancelled_total",
		Help: "Number of reservations cancelled by customers.",
	})
	reservationsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_reservations_confirmed_total",
		Help: "Number of reservations confirmed at checkout.",
	})
	reservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_reservations_expired_total",
		Help: "Number of reservations resolved by the expiration sweeper.",
	})
	reservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_reservation_conflicts_total",
		Help: "Number of reservation attempts rejected for insufficient stock or inactive items.",
	})
	sweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_sweep_failures_total",
		Help: "Number of per-reservation failures during expiration sweeps.",
	})
)
