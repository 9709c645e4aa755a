package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"go.uber.org/zap"
)

const (
	holidaysKeyPrefix = "meals:holidays:"
	settingsKey       = "meals:settings"

	defaultCacheTTL = 15 * time.Minute
)

var _ contracts.CalendarRepository = (*CachedCalendarRepo)(nil)

// CachedCalendarRepo is a Redis read-through cache in front of a calendar
// repository. Cache failures are logged and fall through to the source.
type CachedCalendarRepo struct {
	source contracts.CalendarRepository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedCalendarRepo(source contracts.CalendarRepository, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedCalendarRepo {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedCalendarRepo{
		source: source,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (r *CachedCalendarRepo) LoadHolidays(ctx context.Context, from civil.Date) (domain.HolidaySet, error) {
	key := holidaysKeyPrefix + from.String()

	var dates []civil.Date
	if r.get(ctx, key, &dates) {
		return domain.NewHolidaySet(dates...), nil
	}

	holidays, err := r.source.LoadHolidays(ctx, from)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, holidays.Dates())
	return holidays, nil
}

func (r *CachedCalendarRepo) LoadSettings(ctx context.Context) (domain.SubscriptionSettings, error) {
	var settings domain.SubscriptionSettings
	if r.get(ctx, settingsKey, &settings) {
		return settings, nil
	}

	settings, err := r.source.LoadSettings(ctx)
	if err != nil {
		return domain.SubscriptionSettings{}, err
	}
	r.set(ctx, settingsKey, settings)
	return settings, nil
}

// Invalidate drops every cached calendar entry, e.g. after holidays are edited.
func (r *CachedCalendarRepo) Invalidate(ctx context.Context) error {
	keys := []string{settingsKey}
	iter := r.client.Scan(ctx, 0, holidaysKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *CachedCalendarRepo) get(ctx context.Context, key string, dst interface{}) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("calendar cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.log.Warn("calendar cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *CachedCalendarRepo) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		r.log.Warn("calendar cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.log.Warn("calendar cache write failed", zap.String("key", key), zap.Error(err))
	}
}
