package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookPublisher posts selected events to an HTTP endpoint, e.g. an
// external certificate verification service.
type WebhookPublisher struct {
	client     *resty.Client
	url        string
	eventTypes map[string]bool
}

type webhookBody struct {
	Type string          `json:"type"`
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// NewWebhookPublisher forwards only the listed event types; all events when none are listed
func NewWebhookPublisher(url string, eventTypes ...string) *WebhookPublisher {
	filter := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		filter[t] = true
	}
	return &WebhookPublisher{
		client: resty.New().
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("Content-Type", "application/json"),
		url:        url,
		eventTypes: filter,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	if len(p.eventTypes) > 0 && !p.eventTypes[eventType] {
		return nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("X-LearnHub-Event", eventType).
		SetBody(webhookBody{Type: eventType, Key: partitionKey, Data: payload}).
		Post(p.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", eventType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s: unexpected status %d", eventType, resp.StatusCode())
	}
	return nil
}
