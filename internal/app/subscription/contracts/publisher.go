package contracts

import (
	"context"

	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

// EventPublisher delivers domain events to interested consumers after the
// state change that produced them has been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Locker serializes writers of the same subscription. The returned function
// releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
