package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

func TestLedgerMetrics_RecordOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewLedgerMetrics(registry).(*ledgerMetrics)

	m.RecordOperation("pause_subscription", 10*time.Millisecond, nil)
	m.RecordOperation("pause_subscription", time.Millisecond, fmt.Errorf("pause: %w", domain.ErrLimitExceeded))
	m.RecordOperation("pause_subscription", time.Millisecond, errors.New("deadline exceeded"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("pause_subscription", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("pause_subscription", "limit_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("pause_subscription", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
}

func TestLedgerMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewLedgerMetrics(registry).(*ledgerMetrics)

	m.RecordMealsCancelled(4, 3)
	m.RecordDeliveriesScheduled(6)
	m.RecordPublishFailure("subscription.paused")
	m.RecordBreakerState("events", "open")
	m.RecordPauseDays(10)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.mealsCancelled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.carryForward))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.deliveriesScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures.WithLabelValues("subscription.paused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("events", "open")))
}

func TestNewLedgerMetrics_RegistersOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewLedgerMetrics(registry)

	assert.Panics(t, func() { NewLedgerMetrics(registry) })
}
