package change_delivery_days

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared/sharedtest"
)

// Monday
var now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestChangeDeliveryDays_DropsRemovedWeekdays(t *testing.T) {
	ctx := context.Background()
	f := sharedtest.NewFixture(now)
	interactor := NewInteractor(f.Deps)

	sub := sharedtest.ActiveSubscription("sub-1")
	wed := domain.NewScheduledDelivery("del-wed", "sub-1", sharedtest.Date(2024, 1, 3), 2)
	fri := domain.NewScheduledDelivery("del-fri", "sub-1", sharedtest.Date(2024, 1, 5), 2)
	mon := domain.NewScheduledDelivery("del-mon", "sub-1", sharedtest.Date(2024, 1, 8), 2)

	f.Subscriptions.On("FindByID", ctx, "sub-1").Return(sub, nil)
	f.Deliveries.On("FindBySubscription", ctx, "sub-1", domain.DateRange{From: sharedtest.Date(2024, 1, 2)}).
		Return([]*domain.DeliveryRecord{wed, fri, mon}, nil)
	f.Deliveries.On("Delete", ctx, wed).Return(&spanner.Mutation{}, nil)
	f.Subscriptions.On("Save", ctx, sub).Return(&spanner.Mutation{}, nil)
	f.Subscriptions.On("Apply", ctx, mock.Anything).Return(nil)

	got, err := interactor.Execute(ctx, Request{SubscriptionID: "sub-1", DeliveryDays: []string{"M", "T", "F"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"M", "T", "F"}, got.DeliveryDays().Strings())
	f.Deliveries.AssertNumberOfCalls(t, "Delete", 1)
	f.Deliveries.AssertExpectations(t)
}

func TestChangeDeliveryDays_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		sub     func() *domain.Subscription
		days    []string
		wantErr error
	}{
		{
			name:    "count mismatch",
			sub:     func() *domain.Subscription { return sharedtest.ActiveSubscription("sub-1") },
			days:    []string{"M", "W"},
			wantErr: domain.ErrWeekdayCountMismatch,
		},
		{
			name:    "unknown code",
			sub:     func() *domain.Subscription { return sharedtest.ActiveSubscription("sub-1") },
			days:    []string{"M", "X", "F"},
			wantErr: domain.ErrInvalidWeekdayCode,
		},
		{
			name: "cancelled",
			sub: func() *domain.Subscription {
				sub := sharedtest.ActiveSubscription("sub-1")
				_, err := sub.Cancel(now)
				require.NoError(t, err)
				return sub
			},
			days:    []string{"M", "W", "F"},
			wantErr: domain.ErrAlreadyCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := sharedtest.NewFixture(now)
			interactor := NewInteractor(f.Deps)

			f.Subscriptions.On("FindByID", ctx, "sub-1").Return(tt.sub(), nil)

			_, err := interactor.Execute(ctx, Request{SubscriptionID: "sub-1", DeliveryDays: tt.days})

			assert.ErrorIs(t, err, tt.wantErr)
			f.Subscriptions.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
		})
	}
}
