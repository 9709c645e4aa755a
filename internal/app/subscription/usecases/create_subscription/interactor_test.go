package create_subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared/sharedtest"
)

func validRequest() Request {
	return Request{
		CustomerID:   "cust-1",
		PlanID:       "plan-3x",
		DeliveryDays: []string{"M", "W", "F"},
		MealsPerDay:  2,
		MealsPerWeek: 3,
	}
}

func TestCreateSubscription_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	mockMutation := &spanner.Mutation{}
	f.Subscriptions.On("Save", ctx, mock.AnythingOfType("*domain.Subscription")).Return(mockMutation, nil)
	f.Subscriptions.On("Apply", ctx, []*spanner.Mutation{mockMutation}).Return(nil)
	f.Publisher.On("Publish", ctx, mock.AnythingOfType("*domain.SubscriptionCreatedEvent")).Return(nil)

	sub, event, err := interactor.Execute(ctx, validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, domain.StatusActive, sub.Status())
	assert.Equal(t, sharedtest.Date(2024, 3, 1), sub.StartDate())
	assert.Equal(t, domain.DefaultPauseLimitDays, sub.PauseLimitDays())
	assert.Equal(t, sub.ID(), event.SubscriptionID)
	assert.Equal(t, []string{"M", "W", "F"}, event.DeliveryDays)

	f.Subscriptions.AssertExpectations(t)
	f.Publisher.AssertExpectations(t)
}

func TestCreateSubscription_WeekdayCountMismatch(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	interactor := NewInteractor(f.Deps)

	req := validRequest()
	req.MealsPerWeek = 5

	sub, event, err := interactor.Execute(ctx, req)

	assert.ErrorIs(t, err, domain.ErrWeekdayCountMismatch)
	assert.Nil(t, sub)
	assert.Nil(t, event)
	f.Subscriptions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.Publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateSubscription_ApplyFails(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	interactor := NewInteractor(f.Deps)
	boom := errors.New("spanner: aborted")

	mockMutation := &spanner.Mutation{}
	f.Subscriptions.On("Save", ctx, mock.Anything).Return(mockMutation, nil)
	f.Subscriptions.On("Apply", ctx, mock.Anything).Return(boom)

	_, _, err := interactor.Execute(ctx, validRequest())

	assert.ErrorIs(t, err, boom)
	f.Publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateSubscription_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	interactor := NewInteractor(f.Deps)

	f.Subscriptions.On("Save", ctx, mock.Anything).Return(&spanner.Mutation{}, nil)
	f.Subscriptions.On("Apply", ctx, mock.Anything).Return(nil)
	f.Publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	sub, _, err := interactor.Execute(ctx, validRequest())

	require.NoError(t, err)
	assert.NotNil(t, sub)
	count, err := testutil.GatherAndCount(f.Registry, "meal_subscription_event_publish_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
