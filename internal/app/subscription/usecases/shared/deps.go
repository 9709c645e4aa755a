// Package shared holds the collaborators and steps every subscription use
// case goes through: lock, load, catch up a lapsed pause, commit, publish.
package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/metrics"
	"go.uber.org/zap"
)

// Deps are the collaborators of the subscription use cases.
type Deps struct {
	Subscriptions contracts.SubscriptionRepository
	Deliveries    contracts.DeliveryRepository
	Calendar      contracts.CalendarRepository
	Publisher     contracts.EventPublisher
	Locker        contracts.Locker
	Metrics       metrics.LedgerMetrics
	Clock         domain.Clock
	Log           *zap.Logger
}

// Lock takes the single-writer lock of a subscription.
func (d Deps) Lock(ctx context.Context, subscriptionID string) (func(), error) {
	unlock, err := d.Locker.Lock(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("lock subscription %s: %w", subscriptionID, err)
	}
	return unlock, nil
}

// Load reads a subscription and closes a pause whose planned end has passed.
// The returned events must be published once the subscription is saved.
func (d Deps) Load(ctx context.Context, subscriptionID string, now time.Time) (*domain.Subscription, []domain.Event, error) {
	sub, err := d.Subscriptions.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}

	var events []domain.Event
	if resumed, ok := sub.ResumeIfLapsed(now); ok {
		d.Log.Info("pause lapsed, subscription reactivated",
			zap.String("subscription_id", subscriptionID),
			zap.Stringer("pause_end_date", resumed.PauseEndDate),
		)
		events = append(events, resumed)
	}
	sub.RecomputePausedDays(now)
	return sub, events, nil
}

// Commit saves the subscription together with the extra mutations in one batch.
func (d Deps) Commit(ctx context.Context, sub *domain.Subscription, extra ...*spanner.Mutation) error {
	mutation, err := d.Subscriptions.Save(ctx, sub)
	if err != nil {
		return err
	}
	mutations := append([]*spanner.Mutation{mutation}, extra...)
	return d.Subscriptions.Apply(ctx, mutations...)
}

// Publish sends events after commit. Failures are logged and counted but never
// returned: the state change has already happened.
func (d Deps) Publish(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		if event == nil {
			continue
		}
		if err := d.Publisher.Publish(ctx, event); err != nil {
			d.Log.Error("failed to publish event",
				zap.String("event", event.EventName()),
				zap.String("subscription_id", event.AggregateID()),
				zap.Error(err),
			)
			d.Metrics.RecordPublishFailure(event.EventName())
		}
	}
}

// Observe records the outcome of one use case execution.
func (d Deps) Observe(operation, subscriptionID string, start time.Time, err error) {
	d.Metrics.RecordOperation(operation, time.Since(start), err)

	switch {
	case err == nil:
		d.Log.Debug("operation completed",
			zap.String("operation", operation),
			zap.String("subscription_id", subscriptionID),
		)
	case domain.ErrorKind(err) != "":
		d.Log.Info("operation rejected",
			zap.String("operation", operation),
			zap.String("subscription_id", subscriptionID),
			zap.String("reason", domain.ErrorKind(err)),
			zap.Error(err),
		)
	case errors.Is(err, context.Canceled):
		d.Log.Warn("operation cancelled",
			zap.String("operation", operation),
			zap.String("subscription_id", subscriptionID),
		)
	default:
		d.Log.Error("operation failed",
			zap.String("operation", operation),
			zap.String("subscription_id", subscriptionID),
			zap.Error(err),
		)
	}
}

// DropScheduled returns delete mutations for the scheduled records that match.
func (d Deps) DropScheduled(ctx context.Context, records []*domain.DeliveryRecord, match func(civil.Date) bool) ([]*spanner.Mutation, error) {
	var mutations []*spanner.Mutation
	for _, r := range records {
		if !r.IsScheduled() || !match(r.Date) {
			continue
		}
		m, err := d.Deliveries.Delete(ctx, r)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}
	return mutations, nil
}

// ScheduleAnchor is the day after which deliveries may be planned: today, or
// the day before a future start date.
func ScheduleAnchor(sub *domain.Subscription, now time.Time) civil.Date {
	today := domain.Today(now)
	if before := sub.StartDate().AddDays(-1); before.After(today) {
		return before
	}
	return today
}
