package repo

import (
	"context"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.CalendarRepository = (*CalendarRepo)(nil)

// CalendarRepo reads holidays and the global cancellation settings.
type CalendarRepo struct {
	client *spanner.Client
}

func NewCalendarRepo(client *spanner.Client) *CalendarRepo {
	return &CalendarRepo{client: client}
}

func (r *CalendarRepo) LoadHolidays(ctx context.Context, from civil.Date) (domain.HolidaySet, error) {
	stmt := spanner.Statement{
		SQL: `SELECT date FROM holidays
			WHERE is_active = TRUE AND date >= @from`,
		Params: map[string]interface{}{
			"from": from,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	holidays := domain.NewHolidaySet()
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return holidays, nil
		}
		if err != nil {
			return nil, err
		}
		var d civil.Date
		if err := row.Columns(&d); err != nil {
			return nil, err
		}
		holidays[d] = struct{}{}
	}
}

func (r *CalendarRepo) LoadSettings(ctx context.Context) (domain.SubscriptionSettings, error) {
	stmt := spanner.Statement{
		SQL: `SELECT cancellation_cutoff_hours, max_cancellations_per_month, carry_forward_limit
			FROM subscription_settings
			ORDER BY id
			LIMIT 1`,
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return domain.DefaultSettings(), nil
		}
		return domain.SubscriptionSettings{}, err
	}

	var cutoffHours, maxPerMonth, carryLimit int64
	if err := row.Columns(&cutoffHours, &maxPerMonth, &carryLimit); err != nil {
		return domain.SubscriptionSettings{}, err
	}
	return domain.SubscriptionSettings{
		CancellationCutoffHours:  int(cutoffHours),
		MaxCancellationsPerMonth: int(maxPerMonth),
		CarryForwardLimit:        int(carryLimit),
	}, nil
}
