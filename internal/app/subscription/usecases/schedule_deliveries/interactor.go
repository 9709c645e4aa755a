package schedule_deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
	"go.uber.org/zap"
)

const operation = "schedule_deliveries"

// Request schedules one subscription, or every active one when
// SubscriptionID is empty.
type Request struct {
	SubscriptionID string
}

// Response summarises a scheduling run.
type Response struct {
	Subscriptions int
	Scheduled     int
	Failed        int
}

// Interactor materializes scheduled delivery records for the coming days.
type Interactor struct {
	deps      shared.Deps
	daysAhead int
}

func NewInteractor(deps shared.Deps, daysAhead int) *Interactor {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	return &Interactor{deps: deps, daysAhead: daysAhead}
}

// Execute creates a scheduled record for every eligible date in the next
// daysAhead days that has none yet. One subscription failing does not stop
// the others; their errors are joined.
func (i *Interactor) Execute(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() { i.deps.Observe(operation, req.SubscriptionID, start, err) }()

	ids := []string{req.SubscriptionID}
	if req.SubscriptionID == "" {
		if ids, err = i.activeIDs(ctx); err != nil {
			return nil, err
		}
	}

	holidays, err := i.deps.Calendar.LoadHolidays(ctx, domain.Today(i.deps.Clock.Now()))
	if err != nil {
		return nil, err
	}

	resp = &Response{}
	var errs []error
	for _, id := range ids {
		n, err := i.scheduleOne(ctx, id, holidays)
		if err != nil {
			resp.Failed++
			errs = append(errs, fmt.Errorf("schedule %s: %w", id, err))
			continue
		}
		resp.Subscriptions++
		resp.Scheduled += n
	}
	i.deps.Metrics.RecordDeliveriesScheduled(resp.Scheduled)

	return resp, errors.Join(errs...)
}

func (i *Interactor) activeIDs(ctx context.Context) ([]string, error) {
	subs, err := i.deps.Subscriptions.FindByStatus(ctx, domain.StatusActive, domain.StatusPaused)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(subs))
	for n, sub := range subs {
		ids[n] = sub.ID()
	}
	return ids, nil
}

func (i *Interactor) scheduleOne(ctx context.Context, subscriptionID string, holidays domain.HolidaySet) (int, error) {
	unlock, err := i.deps.Lock(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	now := i.deps.Clock.Now()
	sub, events, err := i.deps.Load(ctx, subscriptionID, now)
	if err != nil {
		return 0, err
	}
	if sub.Status() == domain.StatusCancelled {
		return 0, domain.ErrAlreadyCancelled
	}

	dates := i.plannedDates(sub, holidays, now)

	var mutations []*spanner.Mutation
	if len(dates) > 0 {
		window := domain.DateRange{From: dates[0], To: dates[len(dates)-1]}
		existing, err := i.deps.Deliveries.FindBySubscription(ctx, subscriptionID, window)
		if err != nil {
			return 0, err
		}
		taken := make(map[civil.Date]struct{}, len(existing))
		for _, r := range existing {
			taken[r.Date] = struct{}{}
		}
		for _, d := range dates {
			if _, ok := taken[d]; ok {
				continue
			}
			record := domain.NewScheduledDelivery(uuid.New().String(), subscriptionID, d, sub.MealsPerDay())
			m, err := i.deps.Deliveries.Save(ctx, record)
			if err != nil {
				return 0, err
			}
			mutations = append(mutations, m)
		}
	}

	if len(mutations) == 0 && len(events) == 0 {
		return 0, nil
	}
	if err := i.deps.Commit(ctx, sub, mutations...); err != nil {
		return 0, err
	}
	i.deps.Publish(ctx, events...)

	i.deps.Log.Debug("deliveries scheduled",
		zap.String("subscription_id", subscriptionID),
		zap.Int("count", len(mutations)),
	)
	return len(mutations), nil
}

// plannedDates lists the eligible dates of the scheduling window; paused days
// are skipped.
func (i *Interactor) plannedDates(sub *domain.Subscription, holidays domain.HolidaySet, now time.Time) []civil.Date {
	today := domain.Today(now)
	anchor := shared.ScheduleAnchor(sub, now)
	horizon := i.daysAhead - anchor.DaysSince(today)
	if horizon <= 0 {
		return nil
	}
	resolver := sub.Resolver(holidays).WithBlackout(sub.IsPausedOn)
	return resolver.NextEligibleDates(anchor, horizon, horizon)
}
