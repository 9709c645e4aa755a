package domain

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

var (
	ErrInvalidRange         = errors.New("invalid date range")
	ErrAlreadyPaused        = errors.New("subscription already paused")
	ErrNotPaused            = errors.New("subscription is not paused")
	ErrLimitExceeded        = errors.New("pause limit exceeded")
	ErrPauseOverlap         = errors.New("pause overlaps an existing pause period")
	ErrMonthlyLimitExceeded = errors.New("monthly cancellation limit exceeded")
	ErrWithinCutoff         = errors.New("delivery is within the cancellation cutoff")
	ErrNotActive            = errors.New("subscription is not active")
	ErrAlreadyCancelled     = errors.New("subscription already cancelled")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrIneligibleDate       = errors.New("date is not an eligible delivery date")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDeliveryNotFound     = errors.New("delivery record not found")
	ErrDeliveryImmutable    = errors.New("delivery record can no longer change")
	ErrInvalidWeekdayCode   = errors.New("invalid weekday code")
	ErrWeekdayCountMismatch = errors.New("delivery day count does not match plan")
	ErrInvalidPlanID        = errors.New("plan ID cannot be empty")
	ErrInvalidCustomerID    = errors.New("customer ID cannot be empty")
	ErrInvalidMealsPerDay   = errors.New("meals per day must be positive")
	ErrInvalidSettings      = errors.New("invalid subscription settings")
)

// QuotaError reports a rejected request against a counted allowance.
type QuotaError struct {
	Err       error
	Limit     int
	Used      int
	Requested int
	Remaining int
}

func newQuotaError(err error, limit, used, requested int) *QuotaError {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaError{
		Err:       err,
		Limit:     limit,
		Used:      used,
		Requested: requested,
		Remaining: remaining,
	}
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%v: requested %d, %d of %d remaining", e.Err, e.Requested, e.Remaining, e.Limit)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// CutoffError names the first delivery date that is too close to cancel.
type CutoffError struct {
	Date        civil.Date
	CutoffHours int
	Cutoff      time.Time
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("%v: cannot cancel %s within %d hours of delivery", ErrWithinCutoff, e.Date, e.CutoffHours)
}

func (e *CutoffError) Unwrap() error {
	return ErrWithinCutoff
}

// ErrorKind returns a stable label for expected business-rule failures and
// an empty string for anything else.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrAlreadyPaused):
		return "already_paused"
	case errors.Is(err, ErrNotPaused):
		return "not_paused"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrPauseOverlap):
		return "pause_overlap"
	case errors.Is(err, ErrMonthlyLimitExceeded):
		return "monthly_limit_exceeded"
	case errors.Is(err, ErrWithinCutoff):
		return "within_cutoff"
	case errors.Is(err, ErrNotActive):
		return "not_active"
	case errors.Is(err, ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrIneligibleDate):
		return "ineligible_date"
	case errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, ErrDeliveryNotFound):
		return "not_found"
	case errors.Is(err, ErrDeliveryImmutable):
		return "delivery_immutable"
	case errors.Is(err, ErrInvalidWeekdayCode), errors.Is(err, ErrWeekdayCountMismatch),
		errors.Is(err, ErrInvalidPlanID), errors.Is(err, ErrInvalidCustomerID),
		errors.Is(err, ErrInvalidMealsPerDay), errors.Is(err, ErrInvalidSettings):
		return "invalid_input"
	default:
		return ""
	}
}
