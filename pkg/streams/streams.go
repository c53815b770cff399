// Package streams wraps Redis Streams as the durable job broker between
// cmd/core (producer) and cmd/worker (consumer groups), and as the
// outbound notification channel between cmd/core/cmd/assistant and
// cmd/gateway. Grounded on the DLQ client pattern other production repos
// in this retrieval pack build on top of redis/go-redis/v9 streams:
// XADD to publish, XGROUP CREATE MKSTREAM once per group, XREADGROUP to
// consume, XACK to confirm.
package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Broker publishes to and consumes from Redis Streams.
type Broker struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

// Publish appends one message to stream, JSON-shaped as string fields in
// values. Returns the assigned stream entry ID.
func (b *Broker) Publish(ctx context.Context, stream string, values map[string]any) (string, error) {
	id, err := b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publishing to stream %s: %w", stream, err)
	}
	return id, nil
}

// EnsureGroup creates a consumer group starting from the beginning of the
// stream, creating the stream itself if absent. BUSYGROUP (group already
// exists) is not an error.
func (b *Broker) EnsureGroup(ctx context.Context, stream, group string) error {
	err := b.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("creating consumer group %s on %s: %w", group, stream, err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// Message is one delivered stream entry.
type Message struct {
	Stream string
	ID     string
	Values map[string]any
}

// ReadGroup blocks up to block for new entries (">" — never yet delivered
// to this group) across one or more streams, returning whatever arrived.
// A timeout is reported as a nil slice and nil error, not redis.Nil.
func (b *Broker) ReadGroup(ctx context.Context, group, consumer string, streamNames []string, count int64, block time.Duration) ([]Message, error) {
	args := make([]string, 0, len(streamNames)*2)
	args = append(args, streamNames...)
	for range streamNames {
		args = append(args, ">")
	}
	res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  args,
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if isNoGroup(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading consumer group %s: %w", group, err)
	}
	var out []Message
	for _, stream := range res {
		for _, m := range stream.Messages {
			out = append(out, Message{Stream: stream.Stream, ID: m.ID, Values: m.Values})
		}
	}
	return out, nil
}

// ReadPending re-reads this consumer's own not-yet-acknowledged entries
// (Redis stream ID "0"), used by the worker to retry a job it failed to
// process without acknowledging, rather than waiting for a new delivery.
func (b *Broker) ReadPending(ctx context.Context, group, consumer, stream string, count int64) ([]Message, error) {
	res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || isNoGroup(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending entries for %s/%s: %w", group, consumer, err)
	}
	var out []Message
	for _, stream := range res {
		for _, m := range stream.Messages {
			out = append(out, Message{Stream: stream.Stream, ID: m.ID, Values: m.Values})
		}
	}
	return out, nil
}

func isNoGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOGROUP")
}

// Ack confirms processing of a delivered message, removing it from the
// group's pending entries list.
func (b *Broker) Ack(ctx context.Context, stream, group, id string) error {
	if err := b.rdb.XAck(ctx, stream, group, id).Err(); err != nil {
		return fmt.Errorf("acking %s on %s/%s: %w", id, stream, group, err)
	}
	return nil
}

// LogFieldError is a convenience for slog.Error call sites across the
// worker/gateway consumer loops, which all share the same "log and
// continue" policy on a single message failure.
func LogFieldError(logger *slog.Logger, msg string, stream, id string, err error) {
	logger.Error(msg, "stream", stream, "message_id", id, "error", err)
}
