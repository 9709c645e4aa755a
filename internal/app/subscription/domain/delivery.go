package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DeliveryStatus is the state of one scheduled delivery.
type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch DeliveryStatus(s) {
	case DeliveryScheduled, DeliveryDelivered, DeliveryCancelled:
		return DeliveryStatus(s), nil
	}
	return "", fmt.Errorf("unknown delivery status %q", s)
}

// DeliveryRecord is one subscription's delivery on one calendar date.
type DeliveryRecord struct {
	ID                 string
	SubscriptionID     string
	Date               civil.Date
	Status             DeliveryStatus
	MealsCount         int
	CancelledAt        *time.Time
	CancellationReason string
	DeliveredAt        *time.Time
}

// NewScheduledDelivery creates a record in the scheduled state.
func NewScheduledDelivery(id, subscriptionID string, date civil.Date, mealsCount int) *DeliveryRecord {
	return &DeliveryRecord{
		ID:             id,
		SubscriptionID: subscriptionID,
		Date:           date,
		Status:         DeliveryScheduled,
		MealsCount:     mealsCount,
	}
}

func (r *DeliveryRecord) IsScheduled() bool {
	return r.Status == DeliveryScheduled
}

// cancel marks a scheduled record cancelled. Records in any other state are
// left untouched and false is returned.
func (r *DeliveryRecord) cancel(now time.Time, reason string) bool {
	if r.Status != DeliveryScheduled {
		return false
	}
	at := now
	r.Status = DeliveryCancelled
	r.CancelledAt = &at
	r.CancellationReason = reason
	return true
}

// MarkDelivered confirms the delivery. Delivered records never change again.
func (r *DeliveryRecord) MarkDelivered(now time.Time) error {
	if r.Status != DeliveryScheduled {
		return fmt.Errorf("%w: %s is %s", ErrDeliveryImmutable, r.Date, r.Status)
	}
	at := now
	r.Status = DeliveryDelivered
	r.DeliveredAt = &at
	return nil
}

// cancellationMonthKey is the month a cancelled record counts against: the
// month it was cancelled in, or its delivery month for rows without a timestamp.
func (r *DeliveryRecord) cancellationMonthKey(loc *time.Location) (int, time.Month) {
	if r.CancelledAt != nil {
		t := r.CancelledAt.In(loc)
		return t.Year(), t.Month()
	}
	return r.Date.Year, r.Date.Month
}
