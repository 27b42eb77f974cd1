package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
)

// RedisSink publishes listing records onto a Redis stream, one XADD entry
// per record, trimming the stream to a maximum length afterwards.
type RedisSink struct {
	client    *redis.Client
	ctx       context.Context
	stream    string
	maxLength int
}

// NewRedisSink creates a Redis stream sink.
func NewRedisSink(ctx context.Context, addr string, db int, stream string, maxLength int) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisSink{
		client:    client,
		ctx:       ctx,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Write publishes every record as a JSON payload on the stream.
func (s *RedisSink) Write(records []discovery.Listing) error {
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal listing %s: %w", rec.CanonicalURL, err)
		}
		err = s.client.XAdd(s.ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"listing": payload,
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("publish listing %s: %w", rec.CanonicalURL, err)
		}
	}

	if s.maxLength > 0 {
		if err := s.client.XTrimMaxLen(s.ctx, s.stream, int64(s.maxLength)).Err(); err != nil {
			return fmt.Errorf("trim stream %s: %w", s.stream, err)
		}
	}

	logger.ForSink().Info().
		Int("records", len(records)).
		Str("stream", s.stream).
		Msg("Records published")
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
