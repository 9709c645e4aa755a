package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_meals"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/change_delivery_days"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/create_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/next_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/pause_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/record_delivery"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/resume_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/schedule_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared/sharedtest"
)

// Monday
var now = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestApp(f *sharedtest.Fixture) *App {
	return &App{
		CreateSubscription: create_subscription.NewInteractor(f.Deps),
		PauseSubscription:  pause_subscription.NewInteractor(f.Deps),
		ResumeSubscription: resume_subscription.NewInteractor(f.Deps, 14),
		CancelMeals:        cancel_meals.NewInteractor(f.Deps),
		CancelSubscription: cancel_subscription.NewInteractor(f.Deps),
		NextDeliveries:     next_deliveries.NewInteractor(f.Deps, 14),
		ScheduleDeliveries: schedule_deliveries.NewInteractor(f.Deps, 7),
		RecordDelivery:     record_delivery.NewInteractor(f.Deps),
		ChangeDeliveryDays: change_delivery_days.NewInteractor(f.Deps),
		Subscriptions:      f.Subscriptions,
		Clock:              f.Deps.Clock,
		Registry:           f.Registry,
	}
}

func run(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	SetApp(a)
	t.Cleanup(func() { SetApp(nil) })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPauseCommand(t *testing.T) {
	f := sharedtest.NewFixture(now)
	sub := sharedtest.ActiveSubscription("sub-1")

	f.Subscriptions.On("FindByID", mock.Anything, "sub-1").Return(sub, nil)
	f.Deliveries.On("FindBySubscription", mock.Anything, "sub-1", mock.Anything).Return(nil, nil)
	f.Subscriptions.On("Save", mock.Anything, sub).Return(&spanner.Mutation{}, nil)
	f.Subscriptions.On("Apply", mock.Anything, mock.Anything).Return(nil)
	f.Publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	out, err := run(t, newTestApp(f), "pause", "sub-1", "--from", "2024-01-10", "--to", "2024-01-12")

	require.NoError(t, err)
	assert.Contains(t, out, "Paused sub-1 from 2024-01-10 to 2024-01-12")
	assert.Equal(t, domain.StatusPaused, sub.Status())
}

func TestPauseCommand_BadDate(t *testing.T) {
	f := sharedtest.NewFixture(now)

	_, err := run(t, newTestApp(f), "pause", "sub-1", "--from", "10/01/2024", "--to", "2024-01-12")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
	f.Subscriptions.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCancelMealsCommand_DryRunInsideCutoff(t *testing.T) {
	f := sharedtest.NewFixture(now)
	tomorrow := sharedtest.Date(2024, 1, 2)

	f.Subscriptions.On("FindByID", mock.Anything, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadSettings", mock.Anything).Return(domain.DefaultSettings(), nil)
	f.Deliveries.On("FindBySubscription", mock.Anything, "sub-1", mock.Anything).
		Return([]*domain.DeliveryRecord{domain.NewScheduledDelivery("del-1", "sub-1", tomorrow, 2)}, nil)

	_, err := run(t, newTestApp(f), "cancel-meals", "sub-1", "2024-01-02", "--dry-run")

	assert.ErrorIs(t, err, domain.ErrWithinCutoff)
	f.Subscriptions.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestNextCommand(t *testing.T) {
	f := sharedtest.NewFixture(now)

	f.Subscriptions.On("FindByID", mock.Anything, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)
	f.Calendar.On("LoadHolidays", mock.Anything, sharedtest.Date(2024, 1, 1)).
		Return(domain.NewHolidaySet(sharedtest.Date(2024, 1, 3)), nil)

	out, err := run(t, newTestApp(f), "next", "sub-1", "-n", "2")

	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 Friday\n2024-01-08 Monday\n", out)
}

func TestShowCommand(t *testing.T) {
	f := sharedtest.NewFixture(now)
	f.Subscriptions.On("FindByID", mock.Anything, "sub-1").Return(sharedtest.ActiveSubscription("sub-1"), nil)

	out, err := run(t, newTestApp(f), "show", "sub-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Subscription sub-1 (active)")
	assert.Contains(t, out, "M,W,F")
	assert.Contains(t, out, "0 used, 30 remaining")
}

func TestCommandsWithoutApp(t *testing.T) {
	_, err := run(t, nil, "cancel", "sub-1")

	assert.ErrorIs(t, err, errNoApp)
}

func TestParseDays(t *testing.T) {
	assert.Equal(t, []string{"M", "W", "F"}, parseDays("m, W,,f"))
	assert.Nil(t, parseDays(""))
}

func TestParseDates(t *testing.T) {
	dates, err := parseDates([]string{"2024-03-01", " 2024-03-05"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01, 2024-03-05", joinDates(dates))

	_, err = parseDates([]string{"2024-13-01"})
	assert.Error(t, err)
}

type fakeCache struct{ calls int }

func (f *fakeCache) Invalidate(context.Context) error {
	f.calls++
	return nil
}

func TestFlushCacheCommand(t *testing.T) {
	f := sharedtest.NewFixture(now)
	a := newTestApp(f)

	out, err := run(t, a, "flush-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "No calendar cache configured")

	cache := &fakeCache{}
	a.CalendarCache = cache
	out, err = run(t, a, "flush-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Calendar cache flushed")
	assert.Equal(t, 1, cache.calls)
}
