package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Event is a fact the surrounding application may want to react to.
type Event interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// SubscriptionCreatedEvent is emitted when a subscription is created
type SubscriptionCreatedEvent struct {
	SubscriptionID string     `json:"subscription_id"`
	CustomerID     string     `json:"customer_id"`
	PlanID         string     `json:"plan_id"`
	DeliveryDays   []string   `json:"delivery_days"`
	StartDate      civil.Date `json:"start_date"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (e *SubscriptionCreatedEvent) EventName() string     { return "subscription.created" }
func (e *SubscriptionCreatedEvent) AggregateID() string   { return e.SubscriptionID }
func (e *SubscriptionCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// SubscriptionPausedEvent is emitted when a pause period opens
type SubscriptionPausedEvent struct {
	SubscriptionID string     `json:"subscription_id"`
	StartDate      civil.Date `json:"start_date"`
	EndDate        civil.Date `json:"end_date"`
	// RemainingAfterPause assumes the pause runs to EndDate.
	RemainingAfterPause int       `json:"remaining_after_pause"`
	PausedAt            time.Time `json:"paused_at"`
}

func (e *SubscriptionPausedEvent) EventName() string     { return "subscription.paused" }
func (e *SubscriptionPausedEvent) AggregateID() string   { return e.SubscriptionID }
func (e *SubscriptionPausedEvent) OccurredAt() time.Time { return e.PausedAt }

// SubscriptionResumedEvent is emitted when a paused subscription becomes active
type SubscriptionResumedEvent struct {
	SubscriptionID  string     `json:"subscription_id"`
	PauseEndDate    civil.Date `json:"pause_end_date"`
	TotalPausedDays int        `json:"total_paused_days"`
	Lapsed          bool       `json:"lapsed"`
	ResumedAt       time.Time  `json:"resumed_at"`
}

func (e *SubscriptionResumedEvent) EventName() string     { return "subscription.resumed" }
func (e *SubscriptionResumedEvent) AggregateID() string   { return e.SubscriptionID }
func (e *SubscriptionResumedEvent) OccurredAt() time.Time { return e.ResumedAt }

// MealsCancelledEvent is emitted when individual deliveries are cancelled
type MealsCancelledEvent struct {
	SubscriptionID    string       `json:"subscription_id"`
	Dates             []civil.Date `json:"dates"`
	MealsCancelled    int          `json:"meals_cancelled"`
	CarryForwardAdded int          `json:"carry_forward_added"`
	CancelledAt       time.Time    `json:"cancelled_at"`
}

func (e *MealsCancelledEvent) EventName() string     { return "subscription.meals_cancelled" }
func (e *MealsCancelledEvent) AggregateID() string   { return e.SubscriptionID }
func (e *MealsCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// SubscriptionCancelledEvent is emitted when a subscription is cancelled
type SubscriptionCancelledEvent struct {
	SubscriptionID    string    `json:"subscription_id"`
	CustomerID        string    `json:"customer_id"`
	CarryForwardMeals int       `json:"carry_forward_meals"`
	CancelledAt       time.Time `json:"cancelled_at"`
}

func (e *SubscriptionCancelledEvent) EventName() string     { return "subscription.cancelled" }
func (e *SubscriptionCancelledEvent) AggregateID() string   { return e.SubscriptionID }
func (e *SubscriptionCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// DeliveryRecordedEvent is emitted when a delivery is confirmed
type DeliveryRecordedEvent struct {
	SubscriptionID string     `json:"subscription_id"`
	DeliveryID     string     `json:"delivery_id"`
	Date           civil.Date `json:"date"`
	MealsCount     int        `json:"meals_count"`
	DeliveredAt    time.Time  `json:"delivered_at"`
}

func (e *DeliveryRecordedEvent) EventName() string     { return "subscription.delivery_recorded" }
func (e *DeliveryRecordedEvent) AggregateID() string   { return e.SubscriptionID }
func (e *DeliveryRecordedEvent) OccurredAt() time.Time { return e.DeliveredAt }
