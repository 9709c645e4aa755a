package resume_subscription

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "resume_subscription"

// Request resumes now, or from ResumeDate when it is set.
type Request struct {
	SubscriptionID string
	ResumeDate     *civil.Date
}

// Interactor handles the resume subscription use case
type Interactor struct {
	deps        shared.Deps
	horizonDays int
}

// NewInteractor creates a new resume subscription interactor. horizonDays
// bounds the search for a recommended resume date.
func NewInteractor(deps shared.Deps, horizonDays int) *Interactor {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultHorizonDays
	}
	return &Interactor{deps: deps, horizonDays: horizonDays}
}

// Execute closes the ongoing pause and reactivates the subscription.
func (i *Interactor) Execute(ctx context.Context, req Request) (event *domain.SubscriptionResumedEvent, err error) {
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

	// The pause ran out on its own; persist that and report it as the resume.
	if len(events) > 0 && sub.Status() == domain.StatusActive {
		if err := i.deps.Commit(ctx, sub); err != nil {
			return nil, err
		}
		i.deps.Publish(ctx, events...)
		return events[len(events)-1].(*domain.SubscriptionResumedEvent), nil
	}

	var drops []*spanner.Mutation
	if req.ResumeDate == nil {
		event, err = sub.Resume(now)
		if err != nil {
			return nil, err
		}
	} else {
		holidays, err := i.deps.Calendar.LoadHolidays(ctx, domain.Today(now))
		if err != nil {
			return nil, err
		}
		event, err = sub.ResumeAt(*req.ResumeDate, holidays, now)
		if err != nil {
			return nil, err
		}
		if drops, err = i.dropPaused(ctx, sub, now, *req.ResumeDate); err != nil {
			return nil, err
		}
	}

	if err := i.deps.Commit(ctx, sub, drops...); err != nil {
		return nil, err
	}
	i.deps.Publish(ctx, append(events, event)...)

	return event, nil
}

// dropPaused removes scheduled records that an extended pause now covers.
func (i *Interactor) dropPaused(ctx context.Context, sub *domain.Subscription, now time.Time, resumeDate civil.Date) ([]*spanner.Mutation, error) {
	window := domain.DateRange{From: domain.Today(now), To: resumeDate.AddDays(-1)}
	if window.To.Before(window.From) {
		return nil, nil
	}
	records, err := i.deps.Deliveries.FindBySubscription(ctx, sub.ID(), window)
	if err != nil {
		return nil, err
	}
	return i.deps.DropScheduled(ctx, records, sub.IsPausedOn)
}

// Recommend returns the first eligible delivery date after today, which is
// what a customer is offered as the resume date.
func (i *Interactor) Recommend(ctx context.Context, subscriptionID string) (civil.Date, error) {
	now := i.deps.Clock.Now()
	sub, err := i.deps.Subscriptions.FindByID(ctx, subscriptionID)
	if err != nil {
		return civil.Date{}, err
	}
	holidays, err := i.deps.Calendar.LoadHolidays(ctx, domain.Today(now))
	if err != nil {
		return civil.Date{}, err
	}

	next, ok := sub.Resolver(holidays).NextEligibleDate(domain.Today(now), i.horizonDays)
	if !ok {
		return civil.Date{}, fmt.Errorf("%w: no delivery day within %d days", domain.ErrIneligibleDate, i.horizonDays)
	}
	return next, nil
}
