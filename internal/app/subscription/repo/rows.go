package repo

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

const (
	subscriptionsTable = "subscriptions"
	deliveriesTable    = "meal_deliveries"
)

// subscriptionColumns must follow the field order of subscriptionRow.
const subscriptionColumns = `id, customer_id, plan_id, status, delivery_days, meals_per_day, meals_per_week,
	start_date, pause_limit_days, total_paused_days, pause_periods, pause_start_date, pause_end_date,
	meals_delivered, meals_cancelled, carry_forward_meals, cancellation_count, cancelled_at, updated_at`

const deliveryColumns = `id, subscription_id, delivery_date, status, meals_count,
	cancelled_at, cancellation_reason, delivered_at`

// subscriptionRow is the persisted shape of a subscription.
type subscriptionRow struct {
	ID                string           `spanner:"id"`
	CustomerID        string           `spanner:"customer_id"`
	PlanID            string           `spanner:"plan_id"`
	Status            string           `spanner:"status"`
	DeliveryDays      []string         `spanner:"delivery_days"`
	MealsPerDay       int64            `spanner:"meals_per_day"`
	MealsPerWeek      int64            `spanner:"meals_per_week"`
	StartDate         civil.Date       `spanner:"start_date"`
	PauseLimitDays    int64            `spanner:"pause_limit_days"`
	TotalPausedDays   int64            `spanner:"total_paused_days"`
	PausePeriods      string           `spanner:"pause_periods"`
	PauseStartDate    spanner.NullDate `spanner:"pause_start_date"`
	PauseEndDate      spanner.NullDate `spanner:"pause_end_date"`
	MealsDelivered    int64            `spanner:"meals_delivered"`
	MealsCancelled    int64            `spanner:"meals_cancelled"`
	CarryForwardMeals int64            `spanner:"carry_forward_meals"`
	CancellationCount int64            `spanner:"cancellation_count"`
	CancelledAt       spanner.NullTime `spanner:"cancelled_at"`
	UpdatedAt         time.Time        `spanner:"updated_at"`
}

func encodeSubscription(sub *domain.Subscription) (subscriptionRow, error) {
	snap := sub.Snapshot()

	periods := snap.PausePeriods
	if periods == nil {
		periods = []domain.PausePeriod{}
	}
	encoded, err := json.Marshal(periods)
	if err != nil {
		return subscriptionRow{}, fmt.Errorf("encode pause periods of %s: %w", snap.ID, err)
	}

	return subscriptionRow{
		ID:                snap.ID,
		CustomerID:        snap.CustomerID,
		PlanID:            snap.PlanID,
		Status:            string(snap.Status),
		DeliveryDays:      snap.DeliveryDays.Strings(),
		MealsPerDay:       int64(snap.MealsPerDay),
		MealsPerWeek:      int64(snap.MealsPerWeek),
		StartDate:         snap.StartDate,
		PauseLimitDays:    int64(snap.PauseLimitDays),
		TotalPausedDays:   int64(snap.TotalPausedDays),
		PausePeriods:      string(encoded),
		PauseStartDate:    nullDate(snap.PauseStartDate),
		PauseEndDate:      nullDate(snap.PauseEndDate),
		MealsDelivered:    int64(snap.MealsDelivered),
		MealsCancelled:    int64(snap.MealsCancelled),
		CarryForwardMeals: int64(snap.CarryForwardMeals),
		CancellationCount: int64(snap.CancellationCount),
		CancelledAt:       nullTime(snap.CancelledAt),
		UpdatedAt:         snap.UpdatedAt,
	}, nil
}

func decodeSubscription(row subscriptionRow) (*domain.Subscription, error) {
	status, err := domain.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", row.ID, err)
	}
	days, err := domain.ParseWeekdaySet(row.DeliveryDays)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", row.ID, err)
	}

	var periods []domain.PausePeriod
	if row.PausePeriods != "" {
		if err := json.Unmarshal([]byte(row.PausePeriods), &periods); err != nil {
			return nil, fmt.Errorf("decode pause periods of %s: %w", row.ID, err)
		}
	}
	if err := domain.ValidatePausePeriods(status, periods); err != nil {
		return nil, fmt.Errorf("subscription %s: %w", row.ID, err)
	}

	return domain.ReconstructFromPersistence(domain.Snapshot{
		ID:                row.ID,
		CustomerID:        row.CustomerID,
		PlanID:            row.PlanID,
		Status:            status,
		DeliveryDays:      days,
		MealsPerDay:       int(row.MealsPerDay),
		MealsPerWeek:      int(row.MealsPerWeek),
		StartDate:         row.StartDate,
		PauseLimitDays:    int(row.PauseLimitDays),
		TotalPausedDays:   int(row.TotalPausedDays),
		PausePeriods:      periods,
		PauseStartDate:    datePtr(row.PauseStartDate),
		PauseEndDate:      datePtr(row.PauseEndDate),
		MealsDelivered:    int(row.MealsDelivered),
		MealsCancelled:    int(row.MealsCancelled),
		CarryForwardMeals: int(row.CarryForwardMeals),
		CancellationCount: int(row.CancellationCount),
		CancelledAt:       timePtr(row.CancelledAt),
		UpdatedAt:         row.UpdatedAt,
	}), nil
}

// deliveryRow is the persisted shape of a delivery record.
type deliveryRow struct {
	ID                 string             `spanner:"id"`
	SubscriptionID     string             `spanner:"subscription_id"`
	DeliveryDate       civil.Date         `spanner:"delivery_date"`
	Status             string             `spanner:"status"`
	MealsCount         int64              `spanner:"meals_count"`
	CancelledAt        spanner.NullTime   `spanner:"cancelled_at"`
	CancellationReason spanner.NullString `spanner:"cancellation_reason"`
	DeliveredAt        spanner.NullTime   `spanner:"delivered_at"`
}

func encodeDelivery(r *domain.DeliveryRecord) deliveryRow {
	return deliveryRow{
		ID:                 r.ID,
		SubscriptionID:     r.SubscriptionID,
		DeliveryDate:       r.Date,
		Status:             string(r.Status),
		MealsCount:         int64(r.MealsCount),
		CancelledAt:        nullTime(r.CancelledAt),
		CancellationReason: spanner.NullString{StringVal: r.CancellationReason, Valid: r.CancellationReason != ""},
		DeliveredAt:        nullTime(r.DeliveredAt),
	}
}

func decodeDelivery(row deliveryRow) (*domain.DeliveryRecord, error) {
	status, err := domain.ParseDeliveryStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("delivery %s: %w", row.ID, err)
	}
	return &domain.DeliveryRecord{
		ID:                 row.ID,
		SubscriptionID:     row.SubscriptionID,
		Date:               row.DeliveryDate,
		Status:             status,
		MealsCount:         int(row.MealsCount),
		CancelledAt:        timePtr(row.CancelledAt),
		CancellationReason: row.CancellationReason.StringVal,
		DeliveredAt:        timePtr(row.DeliveredAt),
	}, nil
}

func nullDate(d *civil.Date) spanner.NullDate {
	if d == nil {
		return spanner.NullDate{}
	}
	return spanner.NullDate{Date: *d, Valid: true}
}

func datePtr(d spanner.NullDate) *civil.Date {
	if !d.Valid {
		return nil
	}
	v := d.Date
	return &v
}

func nullTime(t *time.Time) spanner.NullTime {
	if t == nil {
		return spanner.NullTime{}
	}
	return spanner.NullTime{Time: *t, Valid: true}
}

func timePtr(t spanner.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
