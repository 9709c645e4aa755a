package change_delivery_days

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
	"go.uber.org/zap"
)

const operation = "change_delivery_days"

// Request replaces the weekday set of a subscription.
type Request struct {
	SubscriptionID string
	DeliveryDays   []string
}

// Interactor handles the change delivery days use case
type Interactor struct {
	deps shared.Deps
}

func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute swaps the delivery days and drops upcoming scheduled records that
// fall on a weekday no longer in the set. The next scheduling run fills in
// the new days.
func (i *Interactor) Execute(ctx context.Context, req Request) (sub *domain.Subscription, err error) {
	start := time.Now()
	defer func() { i.deps.Observe(operation, req.SubscriptionID, start, err) }()

	unlock, err := i.deps.Lock(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := i.deps.Clock.Now()
	sub, events, err := i.deps.Load(ctx, req.SubscriptionID, now)
	if err != nil {
		return nil, err
	}

	if err := sub.ChangeDeliveryDays(req.DeliveryDays, now); err != nil {
		return nil, err
	}

	upcoming := domain.DateRange{From: domain.Today(now).AddDays(1)}
	records, err := i.deps.Deliveries.FindBySubscription(ctx, req.SubscriptionID, upcoming)
	if err != nil {
		return nil, err
	}
	days := sub.DeliveryDays()
	drops, err := i.deps.DropScheduled(ctx, records, func(d civil.Date) bool {
		return !days.Includes(d)
	})
	if err != nil {
		return nil, err
	}

	if err := i.deps.Commit(ctx, sub, drops...); err != nil {
		return nil, err
	}
	i.deps.Publish(ctx, events...)

	i.deps.Log.Info("delivery days changed",
		zap.String("subscription_id", req.SubscriptionID),
		zap.Strings("delivery_days", days.Strings()),
		zap.Int("dropped", len(drops)),
	)
	return sub, nil
}
