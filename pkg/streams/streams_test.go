package streams

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb)
}

func TestPublishAndReadGroup(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.EnsureGroup(ctx, "image_tag", "llm-worker"))
	_, err := b.Publish(ctx, "image_tag", map[string]any{"payload": `{"job_id":"j1"}`})
	require.NoError(t, err)

	msgs, err := b.ReadGroup(ctx, "llm-worker", "worker-1", []string{"image_tag"}, 10, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "image_tag", msgs[0].Stream)
	require.Equal(t, `{"job_id":"j1"}`, msgs[0].Values["payload"])
}

func TestEnsureGroupIdempotent(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.EnsureGroup(ctx, "image_tag", "llm-worker"))
	require.NoError(t, b.EnsureGroup(ctx, "image_tag", "llm-worker")) // BUSYGROUP swallowed
}

func TestReadGroupWithNoMessagesReturnsEmptyNotError(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.EnsureGroup(ctx, "image_tag", "llm-worker"))
	msgs, err := b.ReadGroup(ctx, "llm-worker", "worker-1", []string{"image_tag"}, 10, time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestReadGroupWithoutGroupReturnsEmptyNotError(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	msgs, err := b.ReadGroup(ctx, "llm-worker", "worker-1", []string{"nonexistent"}, 10, time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestReadPendingRedeliversUnackedEntry(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.EnsureGroup(ctx, "image_tag", "llm-worker"))
	_, err := b.Publish(ctx, "image_tag", map[string]any{"payload": "v1"})
	require.NoError(t, err)

	// First read delivers and leaves it pending (no ack).
	msgs, err := b.ReadGroup(ctx, "llm-worker", "worker-1", []string{"image_tag"}, 10, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	// A fresh ReadGroup sees nothing new.
	fresh, err := b.ReadGroup(ctx, "llm-worker", "worker-1", []string{"image_tag"}, 10, time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, fresh)

	// ReadPending re-delivers the same still-unacked entry.
	pending, err := b.ReadPending(ctx, "llm-worker", "worker-1", "image_tag", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, msgs[0].ID, pending[0].ID)

	require.NoError(t, b.Ack(ctx, "image_tag", "llm-worker", pending[0].ID))

	acked, err := b.ReadPending(ctx, "llm-worker", "worker-1", "image_tag", 10)
	require.NoError(t, err)
	require.Empty(t, acked)
}
