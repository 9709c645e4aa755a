package record_delivery

import (
	"context"
	"time"

	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "record_delivery"

// Request identifies the delivery record to confirm.
type Request struct {
	DeliveryID string
}

// Interactor confirms that a scheduled delivery reached the customer.
type Interactor struct {
	deps shared.Deps
}

func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute marks the record delivered and credits the subscription's
// delivered meal count in the same batch.
func (i *Interactor) Execute(ctx context.Context, req Request) (event *domain.DeliveryRecordedEvent, err error) {
	start := time.Now()
	subscriptionID := ""
	defer func() { i.deps.Observe(operation, subscriptionID, start, err) }()

	record, err := i.deps.Deliveries.FindByID(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}
	subscriptionID = record.SubscriptionID

	unlock, err := i.deps.Lock(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; a concurrent cancel may have changed the record.
	if record, err = i.deps.Deliveries.FindByID(ctx, req.DeliveryID); err != nil {
		return nil, err
	}

	now := i.deps.Clock.Now()
	sub, events, err := i.deps.Load(ctx, subscriptionID, now)
	if err != nil {
		return nil, err
	}

	event, err = sub.RecordDelivery(record, now)
	if err != nil {
		return nil, err
	}

	mutation, err := i.deps.Deliveries.Save(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := i.deps.Commit(ctx, sub, mutation); err != nil {
		return nil, err
	}

	i.deps.Publish(ctx, append(events, event)...)
	return event, nil
}
