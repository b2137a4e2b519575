package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlanComputations counts payment plan computations by operation and resulting mode.
	PlanComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_plan_computations_total",
			Help: "Payment plan computations",
		},
		[]string{"operation", "mode"},
	)

	// UnbalancedPlans counts plans whose installments no longer sum to the total
	// because every installment was edited by hand.
	UnbalancedPlans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_plan_unbalanced_total",
			Help: "Plans returned with installments not summing to the total",
		},
		[]string{"operation"},
	)

	PlanCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_plan_cache_lookups_total",
			Help: "Plan cache lookups",
		},
		[]string{"result"},
	)

	ManualEdits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_plan_manual_edits_total",
			Help: "Installments edited by hand",
		},
	)

	ExpiredBudgets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_expired_total",
			Help: "Budgets moved to expirado by the expiry job",
		},
	)

	BudgetTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_status_transitions_total",
			Help: "Budget status changes",
		},
		[]string{"from", "to"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
