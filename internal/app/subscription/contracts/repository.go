package contracts

import (
	"context"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

// SubscriptionRepository defines the interface for subscription persistence.
// Apply commits mutations from any repository in one atomic batch.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *domain.Subscription) (*spanner.Mutation, error)
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	FindByStatus(ctx context.Context, statuses ...domain.SubscriptionStatus) ([]*domain.Subscription, error)
	Apply(ctx context.Context, mutations ...*spanner.Mutation) error
}

// DeliveryRepository defines the interface for delivery record persistence
type DeliveryRepository interface {
	Save(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error)
	// Delete removes a record that has not been delivered yet.
	Delete(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error)
	FindByID(ctx context.Context, id string) (*domain.DeliveryRecord, error)
	// FindBySubscription returns the records whose delivery date falls in dates,
	// ordered by date.
	FindBySubscription(ctx context.Context, subscriptionID string, dates domain.DateRange) ([]*domain.DeliveryRecord, error)
}

// CalendarRepository reads the globally shared, read-only collaborators.
type CalendarRepository interface {
	// LoadHolidays returns active holidays on or after from.
	LoadHolidays(ctx context.Context, from civil.Date) (domain.HolidaySet, error)
	// LoadSettings returns the settings row, or domain.DefaultSettings when none exists.
	LoadSettings(ctx context.Context) (domain.SubscriptionSettings, error)
}
