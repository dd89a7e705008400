// Package metrics exposes the ledger's Prometheus counters. DebtUnderflows in
// particular exists to be alerted on: a non-zero value means an invariant was
// breached upstream and the registry clamped instead of corrupting state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_sales_created_total",
		Help: "Credit sales successfully created.",
	})

	PaymentsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_payments_registered_total",
		Help: "Payments successfully applied to a credit sale.",
	})

	PaymentsReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_payments_replayed_total",
		Help: "Payment registrations resolved to an existing record by idempotency key.",
	})

	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_version_conflicts_total",
		Help: "Optimistic lock conflicts observed while updating sale balances.",
	})

	DebtUnderflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "creditledger_debt_underflow_total",
		Help: "Debt decrements clamped to zero because they would have gone negative.",
	})
)
