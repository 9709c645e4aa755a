package pause_subscription

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "pause_subscription"

// Request asks to pause deliveries over [StartDate, EndDate].
type Request struct {
	SubscriptionID string
	StartDate      civil.Date
	EndDate        civil.Date
}

// Interactor handles the pause subscription use case
type Interactor struct {
	deps shared.Deps
}

// NewInteractor creates a new pause subscription interactor
func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute reserves the pause days, moves the subscription to paused and drops
// the scheduled deliveries that fall inside the pause.
func (i *Interactor) Execute(ctx context.Context, req Request) (event *domain.SubscriptionPausedEvent, err error) {
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

	event, err = sub.Pause(req.StartDate, req.EndDate, now)
	if err != nil {
		return nil, err
	}

	window := domain.DateRange{From: req.StartDate, To: req.EndDate}
	records, err := i.deps.Deliveries.FindBySubscription(ctx, sub.ID(), window)
	if err != nil {
		return nil, err
	}
	drops, err := i.deps.DropScheduled(ctx, records, window.Contains)
	if err != nil {
		return nil, err
	}

	if err := i.deps.Commit(ctx, sub, drops...); err != nil {
		return nil, err
	}

	days, _ := domain.DaysBetweenInclusive(req.StartDate, req.EndDate)
	i.deps.Metrics.RecordPauseDays(days)
	i.deps.Publish(ctx, append(events, event)...)

	return event, nil
}
