package domain

import "fmt"

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func ParseStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case StatusActive, StatusPaused, StatusCancelled:
		return SubscriptionStatus(s), nil
	}
	return "", fmt.Errorf("unknown subscription status %q", s)
}

// Transition represents a valid state transition.
type Transition struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

// validTransitions defines all allowed state transitions. Nothing leaves cancelled.
var validTransitions = map[Transition]bool{
	{StatusActive, StatusPaused}:    true,
	{StatusPaused, StatusActive}:    true,
	{StatusActive, StatusCancelled}: true,
	{StatusPaused, StatusCancelled}: true,
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to SubscriptionStatus) bool {
	return validTransitions[Transition{from, to}]
}

// transitionError names the precondition a caller has to branch on.
func transitionError(from, to SubscriptionStatus) error {
	switch {
	case from == StatusCancelled && to == StatusCancelled:
		return ErrAlreadyCancelled
	case to == StatusPaused && from == StatusPaused:
		return ErrAlreadyPaused
	case to == StatusPaused:
		return ErrNotActive
	case to == StatusActive:
		return ErrNotPaused
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
