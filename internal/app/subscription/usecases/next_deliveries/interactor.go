package next_deliveries

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "next_deliveries"

// Request asks for up to Count upcoming delivery dates.
type Request struct {
	SubscriptionID string
	Count          int
	// HorizonDays overrides the configured search horizon when positive.
	HorizonDays int
}

// Interactor answers which days a subscription will be delivered next. It
// never writes.
type Interactor struct {
	deps        shared.Deps
	horizonDays int
}

func NewInteractor(deps shared.Deps, horizonDays int) *Interactor {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultHorizonDays
	}
	return &Interactor{deps: deps, horizonDays: horizonDays}
}

// Execute returns the next eligible dates after today that fall on a delivery
// weekday, are not holidays and are not inside a pause. An empty result means
// nothing qualified within the horizon.
func (i *Interactor) Execute(ctx context.Context, req Request) (dates []civil.Date, err error) {
	start := time.Now()
	defer func() { i.deps.Observe(operation, req.SubscriptionID, start, err) }()

	now := i.deps.Clock.Now()
	sub, _, err := i.deps.Load(ctx, req.SubscriptionID, now)
	if err != nil {
		return nil, err
	}
	if sub.Status() == domain.StatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	holidays, err := i.deps.Calendar.LoadHolidays(ctx, domain.Today(now))
	if err != nil {
		return nil, err
	}

	horizon := i.horizonDays
	if req.HorizonDays > 0 {
		horizon = req.HorizonDays
	}
	anchor := shared.ScheduleAnchor(sub, now)
	// keep the horizon measured from today when the start date is ahead
	horizon -= anchor.DaysSince(domain.Today(now))
	if horizon <= 0 {
		return []civil.Date{}, nil
	}

	resolver := sub.Resolver(holidays).WithBlackout(sub.IsPausedOn)
	return resolver.NextEligibleDates(anchor, horizon, req.Count), nil
}
