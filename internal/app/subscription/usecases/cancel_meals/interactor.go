package cancel_meals

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "cancel_meals"

// Request cancels the deliveries of a subscription on the given dates.
type Request struct {
	SubscriptionID string
	Dates          []civil.Date
	Reason         string
}

// Response reports what was cancelled. Event is nil when nothing changed.
type Response struct {
	Outcome domain.CancellationOutcome
	Event   *domain.MealsCancelledEvent
}

// Interactor handles per-delivery cancellation
type Interactor struct {
	deps shared.Deps
}

// NewInteractor creates a new cancel meals interactor
func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute cancels every requested delivery or none of them.
func (i *Interactor) Execute(ctx context.Context, req Request) (resp *Response, err error) {
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
	settings, err := i.deps.Calendar.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	records, err := i.records(ctx, sub.ID(), req.Dates, now)
	if err != nil {
		return nil, err
	}

	outcome, err := sub.CancelMeals(records, req.Dates, req.Reason, now, settings)
	if err != nil {
		return nil, err
	}

	resp = &Response{Outcome: outcome}
	if outcome.Cancelled == 0 && len(events) == 0 {
		return resp, nil
	}

	mutations := make([]*spanner.Mutation, 0, len(outcome.Records))
	for _, r := range outcome.Records {
		m, err := i.deps.Deliveries.Save(ctx, r)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}
	if err := i.deps.Commit(ctx, sub, mutations...); err != nil {
		return nil, err
	}

	if outcome.Cancelled > 0 {
		resp.Event = &domain.MealsCancelledEvent{
			SubscriptionID:    sub.ID(),
			Dates:             cancelledDates(outcome),
			MealsCancelled:    outcome.MealsCancelled,
			CarryForwardAdded: outcome.CarryForwardAdded,
			CancelledAt:       now,
		}
		events = append(events, resp.Event)
		i.deps.Metrics.RecordMealsCancelled(outcome.MealsCancelled, outcome.CarryForwardAdded)
	}
	i.deps.Publish(ctx, events...)

	return resp, nil
}

// Check validates a cancellation request without changing anything.
func (i *Interactor) Check(ctx context.Context, req Request) error {
	now := i.deps.Clock.Now()
	sub, _, err := i.deps.Load(ctx, req.SubscriptionID, now)
	if err != nil {
		return err
	}
	if sub.Status() != domain.StatusActive {
		return domain.ErrNotActive
	}
	settings, err := i.deps.Calendar.LoadSettings(ctx)
	if err != nil {
		return err
	}
	records, err := i.records(ctx, sub.ID(), req.Dates, now)
	if err != nil {
		return err
	}
	return domain.NewCancellationLedger(sub, records).CanCancel(req.Dates, now, settings)
}

// records loads everything the monthly count and the requested dates need.
// A delivery is never cancelled after its date, so records cancelled this
// month all lie on or after the first of the month.
func (i *Interactor) records(ctx context.Context, subscriptionID string, dates []civil.Date, now time.Time) ([]*domain.DeliveryRecord, error) {
	today := domain.Today(now)
	window := domain.DateRange{From: civil.Date{Year: today.Year, Month: today.Month, Day: 1}}
	for _, d := range dates {
		if d.Before(window.From) {
			window.From = d
		}
	}
	return i.deps.Deliveries.FindBySubscription(ctx, subscriptionID, window)
}

func cancelledDates(outcome domain.CancellationOutcome) []civil.Date {
	dates := make([]civil.Date, len(outcome.Records))
	for i, r := range outcome.Records {
		dates[i] = r.Date
	}
	return dates
}
