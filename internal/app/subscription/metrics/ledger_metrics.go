package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

const namespace = "meal_subscription"

// LedgerMetrics records what the subscription use cases do.
type LedgerMetrics interface {
	// RecordOperation counts one use case execution, labelled with the
	// business-rule kind of err ("ok" on success, "error" for infrastructure).
	RecordOperation(operation string, duration time.Duration, err error)
	RecordPauseDays(days int)
	RecordMealsCancelled(meals, carryForward int)
	RecordDeliveriesScheduled(count int)
	RecordPublishFailure(eventName string)
	RecordBreakerState(name, state string)
}

type ledgerMetrics struct {
	operations          *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	pauseDays           prometheus.Histogram
	mealsCancelled      prometheus.Counter
	carryForward        prometheus.Counter
	deliveriesScheduled prometheus.Counter
	publishFailures     *prometheus.CounterVec
	breakerState        *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on registry.
func NewLedgerMetrics(registry prometheus.Registerer) LedgerMetrics {
	factory := promauto.With(registry)

	return &ledgerMetrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Use case executions by operation and result",
			},
			[]string{"operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Use case latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		pauseDays: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pause_days",
				Help:      "Days reserved per accepted pause",
				Buckets:   []float64{1, 3, 7, 14, 21, 30},
			},
		),
		mealsCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meals_cancelled_total",
				Help:      "Meals cancelled through per-delivery cancellation",
			},
		),
		carryForward: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "carry_forward_meals_total",
				Help:      "Carry-forward credits granted",
			},
		),
		deliveriesScheduled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_scheduled_total",
				Help:      "Delivery records created by the scheduler",
			},
		),
		publishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_failures_total",
				Help:      "Domain events that could not be published after commit",
			},
			[]string{"event"},
		),
		breakerState: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "breaker_state_changes_total",
				Help:      "Circuit breaker transitions by target state",
			},
			[]string{"name", "state"},
		),
	}
}

func (m *ledgerMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operations.WithLabelValues(operation, resultLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *ledgerMetrics) RecordPauseDays(days int) {
	m.pauseDays.Observe(float64(days))
}

func (m *ledgerMetrics) RecordMealsCancelled(meals, carryForward int) {
	m.mealsCancelled.Add(float64(meals))
	m.carryForward.Add(float64(carryForward))
}

func (m *ledgerMetrics) RecordDeliveriesScheduled(count int) {
	m.deliveriesScheduled.Add(float64(count))
}

func (m *ledgerMetrics) RecordPublishFailure(eventName string) {
	m.publishFailures.WithLabelValues(eventName).Inc()
}

func (m *ledgerMetrics) RecordBreakerState(name, state string) {
	m.breakerState.WithLabelValues(name, state).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.ErrorKind(err); kind != "" {
		return kind
	}
	return "error"
}
