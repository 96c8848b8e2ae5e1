package events

import "context"

// NoopPublisher is used when no broker URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	return nil
}
