package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

var _ contracts.EventPublisher = (*WebhookPublisher)(nil)

// WebhookPublisher posts event envelopes to an HTTP endpoint
type WebhookPublisher struct {
	client *http.Client
	url    string
}

// NewWebhookPublisher creates a new webhook publisher
func NewWebhookPublisher(client *http.Client, url string) *WebhookPublisher {
	return &WebhookPublisher{
		client: client,
		url:    url,
	}
}

// Publish posts the event and expects a 2xx answer
func (p *WebhookPublisher) Publish(ctx context.Context, event domain.Event) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", envelope.EventType)
	req.Header.Set("X-Event-ID", envelope.EventID)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver %s: %w", envelope.EventType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
