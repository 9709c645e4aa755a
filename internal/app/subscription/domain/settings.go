package domain

import "fmt"

// SubscriptionSettings are the global cancellation rules.
type SubscriptionSettings struct {
	CancellationCutoffHours  int `json:"cancellation_cutoff_hours"`
	MaxCancellationsPerMonth int `json:"max_cancellations_per_month"`
	// CarryForwardLimit caps accumulated carry-forward meals; 0 means no cap.
	CarryForwardLimit int `json:"carry_forward_limit"`
}

// DefaultSettings is used when no settings row exists.
func DefaultSettings() SubscriptionSettings {
	return SubscriptionSettings{
		CancellationCutoffHours:  24,
		MaxCancellationsPerMonth: 4,
		CarryForwardLimit:        0,
	}
}

func (s SubscriptionSettings) Validate() error {
	if s.CancellationCutoffHours < 0 {
		return fmt.Errorf("%w: cutoff hours %d", ErrInvalidSettings, s.CancellationCutoffHours)
	}
	if s.MaxCancellationsPerMonth < 0 {
		return fmt.Errorf("%w: max cancellations %d", ErrInvalidSettings, s.MaxCancellationsPerMonth)
	}
	if s.CarryForwardLimit < 0 {
		return fmt.Errorf("%w: carry forward limit %d", ErrInvalidSettings, s.CarryForwardLimit)
	}
	return nil
}
