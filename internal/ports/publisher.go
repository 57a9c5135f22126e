package ports

import (
	"context"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// EventPublisher forwards domain events to external consumers.
// Implementations must never propagate delivery failures to the
// caller: an event is delivered or logged, and the method returns
// either way. Event loss handling belongs to the publisher, not to
// the aggregation core.
type EventPublisher interface {
	// Publish forwards a single event
	Publish(ctx context.Context, event domain.Event)

	// PublishMany forwards a batch of events in order
	PublishMany(ctx context.Context, events []domain.Event)
}
