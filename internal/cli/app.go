package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_meals"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/change_delivery_days"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/create_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/next_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/pause_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/record_delivery"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/resume_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/schedule_deliveries"
)

// CacheInvalidator drops cached calendar data.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// App holds the CLI application dependencies.
type App struct {
	CreateSubscription *create_subscription.Interactor
	PauseSubscription  *pause_subscription.Interactor
	ResumeSubscription *resume_subscription.Interactor
	CancelMeals        *cancel_meals.Interactor
	CancelSubscription *cancel_subscription.Interactor
	NextDeliveries     *next_deliveries.Interactor
	ScheduleDeliveries *schedule_deliveries.Interactor
	RecordDelivery     *record_delivery.Interactor
	ChangeDeliveryDays *change_delivery_days.Interactor

	// Read side for `show`
	Subscriptions contracts.SubscriptionRepository
	Clock         domain.Clock

	// CalendarCache is nil when Redis is not configured.
	CalendarCache CacheInvalidator

	Registry    *prometheus.Registry
	MetricsAddr string
}

// NewApp exposes the container's use cases to the commands.
func NewApp(c *app.Container) *App {
	a := &App{
		CreateSubscription: c.CreateSubscription,
		PauseSubscription:  c.PauseSubscription,
		ResumeSubscription: c.ResumeSubscription,
		CancelMeals:        c.CancelMeals,
		CancelSubscription: c.CancelSubscription,
		NextDeliveries:     c.NextDeliveries,
		ScheduleDeliveries: c.ScheduleDeliveries,
		RecordDelivery:     c.RecordDelivery,
		ChangeDeliveryDays: c.ChangeDeliveryDays,
		Subscriptions:      c.Deps.Subscriptions,
		Clock:              c.Deps.Clock,
		Registry:           c.Registry,
		MetricsAddr:        c.Config.MetricsAddr,
	}
	if c.CalendarCache != nil {
		a.CalendarCache = c.CalendarCache
	}
	return a
}

var application *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	application = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return application
}
