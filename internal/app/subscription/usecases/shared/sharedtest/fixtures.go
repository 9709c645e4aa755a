// Package sharedtest builds use case dependencies backed by mocks.
package sharedtest

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts/mocks"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/locking"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/metrics"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
	"go.uber.org/zap"
)

// Fixture exposes the mocks behind Deps so tests can set expectations.
type Fixture struct {
	Deps          shared.Deps
	Subscriptions *mocks.SubscriptionRepository
	Deliveries    *mocks.DeliveryRepository
	Calendar      *mocks.CalendarRepository
	Publisher     *mocks.EventPublisher
	Registry      *prometheus.Registry
}

// NewFixture wires mocks, an in-process lock and a fixed clock.
func NewFixture(now time.Time) *Fixture {
	f := &Fixture{
		Subscriptions: new(mocks.SubscriptionRepository),
		Deliveries:    new(mocks.DeliveryRepository),
		Calendar:      new(mocks.CalendarRepository),
		Publisher:     new(mocks.EventPublisher),
		Registry:      prometheus.NewRegistry(),
	}
	f.Deps = shared.Deps{
		Subscriptions: f.Subscriptions,
		Deliveries:    f.Deliveries,
		Calendar:      f.Calendar,
		Publisher:     f.Publisher,
		Locker:        locking.NewKeyedMutex(),
		Metrics:       metrics.NewLedgerMetrics(f.Registry),
		Clock:         domain.FixedClock{FixedTime: now},
		Log:           zap.NewNop(),
	}
	return f
}

// Date is shorthand for a civil date.
func Date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// ActiveSubscription is an active Mon/Wed/Fri plan with two meals a day.
func ActiveSubscription(id string) *domain.Subscription {
	return domain.ReconstructFromPersistence(domain.Snapshot{
		ID:             id,
		CustomerID:     "cust-1",
		PlanID:         "plan-3x",
		Status:         domain.StatusActive,
		DeliveryDays:   domain.NewWeekdaySet(domain.Monday, domain.Wednesday, domain.Friday),
		MealsPerDay:    2,
		MealsPerWeek:   3,
		StartDate:      Date(2024, 1, 1),
		PauseLimitDays: domain.DefaultPauseLimitDays,
	})
}

// PausedSubscription is ActiveSubscription with an open pause over [start, end].
func PausedSubscription(id string, start, end civil.Date) *domain.Subscription {
	snap := ActiveSubscription(id).Snapshot()
	snap.Status = domain.StatusPaused
	snap.PausePeriods = []domain.PausePeriod{{StartDate: start, PlannedEndDate: end}}
	snap.PauseStartDate = &start
	snap.PauseEndDate = &end
	return domain.ReconstructFromPersistence(snap)
}
