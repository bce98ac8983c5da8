package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bito/concertworker/internal/concert"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	prefix := "test_concerts_" + time.Now().Format("150405.000")
	publisher := NewRedisPublisher("localhost:6379", 0, prefix, 1, 2)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	defer client.Del(ctx, publisher.Stream(0))

	err := publisher.Publish(ctx, ConcertKey, []byte("test_message"))
	require.NoError(t, err)

	messages, err := client.XRange(ctx, publisher.Stream(0), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values[ConcertKey]) // base64 of "test_message"

	samples := concert.Samples(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, PublishConcerts(ctx, publisher, samples))

	length, err := client.XLen(ctx, publisher.Stream(0)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

// recordingPublisher keeps published messages in memory
type recordingPublisher struct {
	messages [][]byte
	trims    int
	failAt   int
}

func (r *recordingPublisher) Publish(ctx context.Context, key string, message []byte) error {
	if r.failAt > 0 && len(r.messages)+1 == r.failAt {
		return errors.New("stream unavailable")
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingPublisher) TrimStreams(ctx context.Context) error {
	r.trims++
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestPublishConcerts(t *testing.T) {
	samples := concert.Samples(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))
	rec := &recordingPublisher{}

	require.NoError(t, PublishConcerts(context.Background(), rec, samples))
	require.Len(t, rec.messages, len(samples))
	assert.Equal(t, 1, rec.trims)

	var decoded concert.Concert
	require.NoError(t, json.Unmarshal(rec.messages[0], &decoded))
	assert.Equal(t, samples[0], decoded)
}

func TestPublishConcertsStopsOnFailure(t *testing.T) {
	samples := concert.Samples(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))
	rec := &recordingPublisher{failAt: 2}

	err := PublishConcerts(context.Background(), rec, samples)
	assert.Error(t, err)
	assert.Len(t, rec.messages, 1)
	assert.Equal(t, 0, rec.trims)
}
