package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs, err := s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, msgs)

	require.NoError(t, s.AppendHistory(ctx, "user-1", Message{Role: "user", Content: "hi"}))
	require.NoError(t, s.AppendHistory(ctx, "user-1", Message{Role: "assistant", Content: "hello"}))

	msgs, err = s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, msgs)

	require.NoError(t, s.ClearHistory(ctx, "user-1"))
	msgs, err = s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendHistory(ctx, "user-1", Message{Role: "user", Content: "a"}))
	require.NoError(t, s.AppendHistory(ctx, "user-2", Message{Role: "user", Content: "b"}))

	m1, _ := s.GetHistory(ctx, "user-1")
	m2, _ := s.GetHistory(ctx, "user-2")
	require.Len(t, m1, 1)
	require.Len(t, m2, 1)
	require.Equal(t, "a", m1[0].Content)
	require.Equal(t, "b", m2[0].Content)
}

func TestSummaryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	summary, err := s.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, summary)

	require.NoError(t, s.SetSummary(ctx, "user-1", "discussed groceries and a dentist appointment"))
	summary, err = s.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "discussed groceries and a dentist appointment", summary)
}

func TestPendingActionDefaultsToIdle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pa, err := s.GetPendingAction(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, StateIdle, pa.State)
	require.Empty(t, pa.Data)
}

func TestPendingActionTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SetPendingAction(ctx, "user-1", PendingAction{
		State: StateAwaitingTags,
		Data:  map[string]any{"memory_id": "mem-123"},
	})
	require.NoError(t, err)

	pa, err := s.GetPendingAction(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, StateAwaitingTags, pa.State)
	require.Equal(t, "mem-123", pa.Data["memory_id"])

	require.NoError(t, s.SetPendingAction(ctx, "user-1", PendingAction{State: StateIdle}))
	pa, err = s.GetPendingAction(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, StateIdle, pa.State)
}

func TestClearPendingAction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetPendingAction(ctx, "user-1", PendingAction{State: StateAwaitingDueDate}))
	require.NoError(t, s.ClearPendingAction(ctx, "user-1"))

	pa, err := s.GetPendingAction(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, StateIdle, pa.State)
}
