package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"bito/concertworker/internal/concert"
)

// ConcertKey is the stream field carrying an encoded concert
const ConcertKey = "b64_concert"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// PublishConcerts publishes every concert as its own JSON message and trims the
// streams afterwards. It stops at the first failure.
func PublishConcerts(ctx context.Context, p Publisher, concerts []concert.Concert) error {
	for _, c := range concerts {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal concert %q: %w", c.Title, err)
		}
		if err := p.Publish(ctx, ConcertKey, data); err != nil {
			return fmt.Errorf("publish concert %q: %w", c.Title, err)
		}
	}
	return p.TrimStreams(ctx)
}
