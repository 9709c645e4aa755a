package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/adapters"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/locking"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/metrics"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/migrations"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/repo"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_meals"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/cancel_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/change_delivery_days"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/create_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/next_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/pause_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/record_delivery"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/resume_subscription"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/schedule_deliveries"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/usecases/shared"
	"github.com/wuyiadepoju/meal-subscriptions/pkg/config"
	"go.uber.org/zap"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Storage
	Spanner       *spanner.Client
	RedisClient   *redis.Client
	CalendarCache *repo.CachedCalendarRepo

	// Metrics
	Registry *prometheus.Registry

	// Events
	EventPublisher contracts.EventPublisher
	closePublisher func() error

	Deps shared.Deps

	// Use cases
	CreateSubscription *create_subscription.Interactor
	PauseSubscription  *pause_subscription.Interactor
	ResumeSubscription *resume_subscription.Interactor
	CancelMeals        *cancel_meals.Interactor
	CancelSubscription *cancel_subscription.Interactor
	NextDeliveries     *next_deliveries.Interactor
	ScheduleDeliveries *schedule_deliveries.Interactor
	RecordDelivery     *record_delivery.Interactor
	ChangeDeliveryDays *change_delivery_days.Interactor
}

// NewContainer connects to Spanner, and to Redis and the broker when they are
// configured, then builds every use case.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := spanner.NewClient(ctx, cfg.DatabasePath(), migrations.ClientOptions(cfg.SpannerEmulatorHost)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to spanner: %w", err)
	}
	c.Spanner = client
	logger.Info("connected to spanner", zap.String("database", cfg.DatabasePath()))

	var calendar contracts.CalendarRepository = repo.NewCalendarRepo(client)

	// Redis is optional in development
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		switch {
		case err != nil && !cfg.IsDevelopment():
			c.Close()
			return nil, err
		case err != nil:
			logger.Warn("redis not available, calendar reads go straight to spanner", zap.Error(err))
		default:
			c.RedisClient = redisClient
			c.CalendarCache = repo.NewCachedCalendarRepo(calendar, redisClient, cfg.CacheTTL, logger)
			calendar = c.CalendarCache
			logger.Info("connected to redis")
		}
	}

	ledgerMetrics := metrics.NewLedgerMetrics(c.Registry)

	publisher, closer, err := newPublisher(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closePublisher = closer
	c.EventPublisher = adapters.NewBreakerPublisher(publisher, adapters.DefaultBreakerConfig(), ledgerMetrics, logger)

	c.Deps = shared.Deps{
		Subscriptions: repo.NewSubscriptionRepo(client),
		Deliveries:    repo.NewDeliveryRepo(client),
		Calendar:      calendar,
		Publisher:     c.EventPublisher,
		Locker:        locking.NewKeyedMutex(),
		Metrics:       ledgerMetrics,
		Clock:         domain.ZonedClock{Clock: domain.RealClock{}, Location: loc},
		Log:           logger,
	}
	c.wireUseCases()

	return c, nil
}

func (c *Container) wireUseCases() {
	c.CreateSubscription = create_subscription.NewInteractor(c.Deps)
	c.PauseSubscription = pause_subscription.NewInteractor(c.Deps)
	c.ResumeSubscription = resume_subscription.NewInteractor(c.Deps, c.Config.DeliveryHorizonDays)
	c.CancelMeals = cancel_meals.NewInteractor(c.Deps)
	c.CancelSubscription = cancel_subscription.NewInteractor(c.Deps)
	c.NextDeliveries = next_deliveries.NewInteractor(c.Deps, c.Config.DeliveryHorizonDays)
	c.ScheduleDeliveries = schedule_deliveries.NewInteractor(c.Deps, c.Config.ScheduleDaysAhead)
	c.RecordDelivery = record_delivery.NewInteractor(c.Deps)
	c.ChangeDeliveryDays = change_delivery_days.NewInteractor(c.Deps)
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// newPublisher picks RabbitMQ when events are enabled, then a webhook sink,
// then a publisher that only logs.
func newPublisher(cfg *config.Config, logger *zap.Logger) (contracts.EventPublisher, func() error, error) {
	noClose := func() error { return nil }

	switch {
	case cfg.EventsEnabled && cfg.RabbitMQURL != "":
		publisher, err := adapters.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if cfg.IsDevelopment() {
				logger.Warn("rabbitmq not available, events will only be logged", zap.Error(err))
				return adapters.NewNoopPublisher(logger), noClose, nil
			}
			return nil, nil, err
		}
		logger.Info("publishing events to rabbitmq", zap.String("exchange", adapters.ExchangeName))
		return publisher, publisher.Close, nil
	case cfg.WebhookURL != "":
		logger.Info("publishing events to webhook", zap.String("url", cfg.WebhookURL))
		return adapters.NewWebhookPublisher(&http.Client{Timeout: 5 * time.Second}, cfg.WebhookURL), noClose, nil
	default:
		return adapters.NewNoopPublisher(logger), noClose, nil
	}
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	if c.closePublisher != nil {
		if err := c.closePublisher(); err != nil {
			c.Logger.Warn("error closing event publisher", zap.Error(err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing redis connection", zap.Error(err))
		}
	}

	if c.Spanner != nil {
		c.Spanner.Close()
	}
	_ = c.Logger.Sync()
}
