package cancel_subscription

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "cancel_subscription"

// Interactor handles the cancel subscription use case
type Interactor struct {
	deps shared.Deps
}

// NewInteractor creates a new cancel subscription interactor
func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute cancels a subscription
func (i *Interactor) Execute(ctx context.Context, subscriptionID string) (event *domain.SubscriptionCancelledEvent, err error) {
	start := time.Now()
	defer func() { i.deps.Observe(operation, subscriptionID, start, err) }()

	unlock, err := i.deps.Lock(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 1. Load subscription
	now := i.deps.Clock.Now()
	sub, events, err := i.deps.Load(ctx, subscriptionID, now)
	if err != nil {
		return nil, err
	}

	// 2. Cancel via domain method (returns event)
	event, err = sub.Cancel(now)
	if err != nil {
		return nil, err
	}

	// 3. Drop deliveries scheduled after today
	upcoming := domain.DateRange{From: domain.Today(now).AddDays(1)}
	records, err := i.deps.Deliveries.FindBySubscription(ctx, subscriptionID, upcoming)
	if err != nil {
		return nil, err
	}
	drops, err := i.deps.DropScheduled(ctx, records, func(civil.Date) bool { return true })
	if err != nil {
		return nil, err
	}

	// 4. Save and apply in one batch
	if err := i.deps.Commit(ctx, sub, drops...); err != nil {
		return nil, err
	}

	// 5. Announce after commit; a failed publish does not undo the cancellation
	i.deps.Publish(ctx, append(events, event)...)

	return event, nil
}
