package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return session.New(rdb)
}

func newTestCore(t *testing.T, handler http.HandlerFunc) *gatewayclient.CoreClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gatewayclient.New(server.URL)
}

func TestSplitTags(t *testing.T) {
	require.Equal(t, []string{"work", "urgent"}, splitTags("work, urgent"))
	require.Equal(t, []string{"work", "urgent"}, splitTags("work urgent"))
	require.Empty(t, splitTags("   "))
}

func TestIsAffirmative(t *testing.T) {
	require.True(t, isAffirmative("yes"))
	require.True(t, isAffirmative("Yep"))
	require.False(t, isAffirmative("nope"))
	require.False(t, isAffirmative(""))
}

func TestHandleInboundIdleForwardsToAssistant(t *testing.T) {
	sessions := newTestStore(t)
	assistantServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"hello there"}`))
	}))
	t.Cleanup(assistantServer.Close)

	gw := New(nil, sessions, NewAssistantClient(assistantServer.URL), testLogger())
	reply := gw.HandleInbound(context.Background(), "user-1", "hi")
	require.Equal(t, "hello there", reply)
}

func TestHandleInboundAwaitingTagsConfirmsAndClearsState(t *testing.T) {
	sessions := newTestStore(t)
	var gotTags []string
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tags []string `json:"tags"`
		}
		_ = decodeJSON(r, &body)
		gotTags = body.Tags
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, sessions.SetPendingAction(context.Background(), "user-1", session.PendingAction{
		State: session.StateAwaitingTags,
		Data:  map[string]any{"memory_id": "m1"},
	}))

	gw := New(core, sessions, NewAssistantClient("http://unused"), testLogger())
	reply := gw.HandleInbound(context.Background(), "user-1", "groceries, urgent")
	require.Contains(t, reply, "groceries")
	require.Equal(t, []string{"groceries", "urgent"}, gotTags)

	pending, err := sessions.GetPendingAction(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, session.StateIdle, pending.State)
}

func TestHandleInboundAwaitingEventConfirmation(t *testing.T) {
	sessions := newTestStore(t)
	require.NoError(t, sessions.SetPendingAction(context.Background(), "user-1", session.PendingAction{
		State: session.StateAwaitingEventConfirmation,
	}))

	gw := New(nil, sessions, NewAssistantClient("http://unused"), testLogger())
	reply := gw.HandleInbound(context.Background(), "user-1", "yes")
	require.Equal(t, "Event confirmed.", reply)

	pending, err := sessions.GetPendingAction(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, session.StateIdle, pending.State)
}
