package create_subscription

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
)

const operation = "create_subscription"

// Request contains the input for creating a subscription
type Request struct {
	CustomerID   string
	PlanID       string
	DeliveryDays []string
	MealsPerDay  int
	MealsPerWeek int
	// StartDate defaults to today.
	StartDate civil.Date
	// PauseLimitDays defaults to domain.DefaultPauseLimitDays.
	PauseLimitDays int
}

// Interactor handles the create subscription use case
type Interactor struct {
	deps shared.Deps
}

// NewInteractor creates a new create subscription interactor
func NewInteractor(deps shared.Deps) *Interactor {
	return &Interactor{deps: deps}
}

// Execute creates a new subscription
func (i *Interactor) Execute(ctx context.Context, req Request) (sub *domain.Subscription, event *domain.SubscriptionCreatedEvent, err error) {
	id := uuid.New().String()
	start := time.Now()
	defer func() { i.deps.Observe(operation, id, start, err) }()

	// 1. Create domain aggregate
	sub, event, err = domain.NewSubscription(domain.NewSubscriptionParams{
		ID:             id,
		CustomerID:     req.CustomerID,
		PlanID:         req.PlanID,
		DeliveryDays:   req.DeliveryDays,
		MealsPerDay:    req.MealsPerDay,
		MealsPerWeek:   req.MealsPerWeek,
		StartDate:      req.StartDate,
		PauseLimitDays: req.PauseLimitDays,
	}, i.deps.Clock)
	if err != nil {
		return nil, nil, err
	}

	// 2. Save and apply in one batch
	if err := i.deps.Commit(ctx, sub); err != nil {
		return nil, nil, err
	}

	// 3. Announce after commit
	i.deps.Publish(ctx, event)

	return sub, event, nil
}
