package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts/mocks"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/metrics"
	"go.uber.org/zap"
)

func pausedEvent() *domain.SubscriptionPausedEvent {
	return &domain.SubscriptionPausedEvent{
		SubscriptionID:      "sub-1",
		StartDate:           civil.Date{Year: 2024, Month: 3, Day: 4},
		EndDate:             civil.Date{Year: 2024, Month: 3, Day: 8},
		RemainingAfterPause: 25,
		PausedAt:            time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// fakeChannel records publishings instead of talking to a broker.
type fakeChannel struct {
	exchange  string
	key       string
	published []amqp.Publishing
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange = exchange
	c.key = key
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestNewEnvelope(t *testing.T) {
	event := pausedEvent()

	envelope, err := NewEnvelope(event)

	require.NoError(t, err)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "subscription.paused", envelope.EventType)
	assert.Equal(t, "sub-1", envelope.AggregateID)
	assert.Equal(t, event.PausedAt, envelope.OccurredAt)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "2024-03-04", payload["start_date"])
	assert.Equal(t, 25.0, payload["remaining_after_pause"])
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	publisher := newRabbitMQPublisherWithChannel(ch, zap.NewNop())

	err := publisher.Publish(context.Background(), pausedEvent())

	require.NoError(t, err)
	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, "subscription.paused", ch.key)
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.NotEmpty(t, msg.MessageId)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Body, &envelope))
	assert.Equal(t, msg.MessageId, envelope.EventID)

	require.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQPublisher_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	publisher := newRabbitMQPublisherWithChannel(&fakeChannel{err: boom}, zap.NewNop())

	err := publisher.Publish(context.Background(), pausedEvent())

	assert.ErrorIs(t, err, boom)
}

func TestWebhookPublisher_Publish(t *testing.T) {
	var gotType string
	var gotBody Envelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("X-Event-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	publisher := NewWebhookPublisher(server.Client(), server.URL)

	err := publisher.Publish(context.Background(), pausedEvent())

	require.NoError(t, err)
	assert.Equal(t, "subscription.paused", gotType)
	assert.Equal(t, "sub-1", gotBody.AggregateID)
}

func TestWebhookPublisher_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	publisher := NewWebhookPublisher(server.Client(), server.URL)

	err := publisher.Publish(context.Background(), pausedEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("broker down")
	next := new(mocks.EventPublisher)
	next.On("Publish", ctx, mock.Anything).Return(boom)

	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	m := metrics.NewLedgerMetrics(prometheus.NewRegistry())
	publisher := NewBreakerPublisher(next, cfg, m, zap.NewNop())

	assert.ErrorIs(t, publisher.Publish(ctx, pausedEvent()), boom)
	assert.ErrorIs(t, publisher.Publish(ctx, pausedEvent()), boom)
	assert.Equal(t, "open", publisher.State())

	err := publisher.Publish(ctx, pausedEvent())

	assert.ErrorIs(t, err, ErrPublisherUnavailable)
	next.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	ctx := context.Background()
	next := new(mocks.EventPublisher)
	next.On("Publish", ctx, mock.Anything).Return(nil)

	publisher := NewBreakerPublisher(next, DefaultBreakerConfig(), nil, zap.NewNop())

	require.NoError(t, publisher.Publish(ctx, pausedEvent()))
	assert.Equal(t, "closed", publisher.State())
	next.AssertExpectations(t)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NewNoopPublisher(zap.NewNop()).Publish(context.Background(), pausedEvent()))
}
