package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts/mocks"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"go.uber.org/zap"
)

// unreachableRedis points at a port nothing listens on.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedCalendarRepo_FallsThroughWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	from := civil.Date{Year: 2024, Month: 3, Day: 1}
	holidays := domain.NewHolidaySet(civil.Date{Year: 2024, Month: 3, Day: 8})

	source := new(mocks.CalendarRepository)
	source.On("LoadHolidays", ctx, from).Return(holidays, nil)
	source.On("LoadSettings", ctx).Return(domain.DefaultSettings(), nil)

	repo := NewCachedCalendarRepo(source, unreachableRedis(t), time.Minute, zap.NewNop())

	got, err := repo.LoadHolidays(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, holidays, got)

	settings, err := repo.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	source.AssertExpectations(t)
}

func TestCachedCalendarRepo_PropagatesSourceErrors(t *testing.T) {
	ctx := context.Background()
	from := civil.Date{Year: 2024, Month: 3, Day: 1}
	boom := errors.New("spanner unavailable")

	source := new(mocks.CalendarRepository)
	source.On("LoadHolidays", ctx, from).Return(nil, boom)
	source.On("LoadSettings", ctx).Return(domain.SubscriptionSettings{}, boom)

	repo := NewCachedCalendarRepo(source, unreachableRedis(t), 0, zap.NewNop())

	_, err := repo.LoadHolidays(ctx, from)
	assert.ErrorIs(t, err, boom)
	_, err = repo.LoadSettings(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, defaultCacheTTL, repo.ttl)
}
