package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	EnrollmentCreated   = "enrollment.created"
	EnrollmentCompleted = "enrollment.completed"
)

// Publisher delivers an encoded event. partitionKey groups events that must
// stay ordered, e.g. all events of one enrollment.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// PublishJSON encodes v and hands it to p
func PublishJSON(ctx context.Context, p Publisher, eventType, partitionKey string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	return p.Publish(ctx, eventType, payload, partitionKey)
}

// Fanout publishes every event to all of its publishers and joins the errors
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, eventType, payload, partitionKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the application log
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.Log.Info().
		Str("event", eventType).
		Str("key", partitionKey).
		RawJSON("payload", payload).
		Msg("event published")
	return nil
}
