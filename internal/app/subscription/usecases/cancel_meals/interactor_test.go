package cancel_meals

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared/sharedtest"
)

var (
	now        = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	monthStart = domain.DateRange{From: sharedtest.Date(2024, 3, 1)}
)

func scheduled(dates ...civil.Date) []*domain.DeliveryRecord {
	records := make([]*domain.DeliveryRecord, len(dates))
	for i, d := range dates {
		records[i] = domain.NewScheduledDelivery("del-"+d.String(), "sub-1", d, 2)
	}
	return records
}

func TestCancelMeals_Success(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	sub := sharedtest.ActiveSubscription("sub-1")
	records := scheduled(sharedtest.Date(2024, 3, 4), sharedtest.Date(2024, 3, 6))
	subMutation, recordMutation := &spanner.Mutation{}, &spanner.Mutation{}

	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sub, nil)
	f.Calendar.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(records, nil)
	f.Deliveries.On("Save", ctx, records[0]).Return(recordMutation, nil)
	f.Subscriptions.On("Save", ctx, sub).Return(subMutation, nil)
	f.Subscriptions.On("Apply", ctx, []*spanner.Mutation{subMutation, recordMutation}).Return(nil)
	f.Publisher.On("Publish", ctx, mock.AnythingOfType("*domain.MealsCancelledEvent")).Return(nil)

	resp, err := interactor.Execute(ctx, Request{
		SubscriptionID: "sub-1",
		Dates:          []civil.Date{sharedtest.Date(2024, 3, 4)},
		Reason:         "travel",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Outcome.Cancelled)
	require.NotNil(t, resp.Event)
	assert.Equal(t, []civil.Date{sharedtest.Date(2024, 3, 4)}, resp.Event.Dates)
	assert.Equal(t, 2, resp.Event.CarryForwardAdded)
	assert.Equal(t, 2, sub.CarryForwardMeals())
	assert.Equal(t, domain.DeliveryCancelled, records[0].Status)
	f.Subscriptions.AssertExpectations(t)
	f.Deliveries.AssertExpectations(t)
	f.Publisher.AssertExpectations(t)
}

func TestCancelMeals_RepeatChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	records := scheduled(sharedtest.Date(2024, 3, 4))
	cancelledAt := now.Add(-time.Hour)
	records[0].Status = domain.DeliveryCancelled
	records[0].CancelledAt = &cancelledAt

	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(records, nil)

	resp, err := interactor.Execute(ctx, Request{SubscriptionID: "sub-1", Dates: []civil.Date{sharedtest.Date(2024, 3, 4)}})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Outcome.Cancelled)
	assert.Nil(t, resp.Event)
	f.Subscriptions.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	f.Publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCancelMeals_MonthlyLimit(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	records := scheduled(sharedtest.Date(2024, 3, 4), sharedtest.Date(2024, 3, 6))
	settings := domain.DefaultSettings()
	settings.MaxCancellationsPerMonth = 1

	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadSettings", ctx).Return(settings, nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(records, nil)

	_, err := interactor.Execute(ctx, Request{
		SubscriptionID: "sub-1",
		Dates:          []civil.Date{sharedtest.Date(2024, 3, 4), sharedtest.Date(2024, 3, 6)},
	})

	var quota *domain.QuotaError
	require.True(t, errors.As(err, &quota))
	assert.ErrorIs(t, err, domain.ErrMonthlyLimitExceeded)
	assert.Equal(t, 1, quota.Remaining)
	for _, r := range records {
		assert.Equal(t, domain.DeliveryScheduled, r.Status)
	}
}

func TestCancelMeals_WithinCutoff(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	records := scheduled(sharedtest.Date(2024, 3, 2))
	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(records, nil)

	_, err := interactor.Execute(ctx, Request{SubscriptionID: "sub-1", Dates: []civil.Date{sharedtest.Date(2024, 3, 2)}})

	assert.ErrorIs(t, err, domain.ErrWithinCutoff)
	assert.Equal(t, "within_cutoff", domain.ErrorKind(err))
}

func TestCancelMeals_PausedSubscription(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	sub := sharedtest.PausedSubscription("sub-1", sharedtest.Date(2024, 3, 1), sharedtest.Date(2024, 3, 10))
	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sub, nil)
	f.Calendar.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(nil, nil)

	_, err := interactor.Execute(ctx, Request{SubscriptionID: "sub-1", Dates: []civil.Date{sharedtest.Date(2024, 3, 11)}})

	assert.ErrorIs(t, err, domain.ErrNotActive)
}

func TestCancelMeals_Check(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	records := scheduled(sharedtest.Date(2024, 3, 4))
	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", monthStart).Return(records, nil)

	err := interactor.Check(ctx, Request{SubscriptionID: "sub-1", Dates: []civil.Date{sharedtest.Date(2024, 3, 4)}})

	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryScheduled, records[0].Status)
	f.Subscriptions.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}
