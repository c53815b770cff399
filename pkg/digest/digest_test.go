package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/session"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []map[string]any
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, values map[string]any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, values)
	return "1-0", nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestSessions(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return session.New(rdb)
}

func newCoreServer(t *testing.T, timezone string) *gatewayclient.CoreClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/settings/user-1":
			_ = json.NewEncoder(w).Encode(map[string]any{"user_id": "user-1", "timezone": timezone, "language": "en"})
		case r.URL.Path == "/tasks":
			fmt.Fprint(w, "[]")
		case r.URL.Path == "/reminders":
			fmt.Fprint(w, "[]")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return gatewayclient.New(server.URL)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckUserSkipsOutsideDigestHour(t *testing.T) {
	sessions := newTestSessions(t)
	core := newCoreServer(t, "UTC")
	publisher := &fakePublisher{}

	wrongHour := (time.Now().UTC().Hour() + 2) % 24
	svc := New(core, sessions, publisher, wrongHour, time.Minute, 500, []string{"user-1"}, testLogger())
	svc.checkUser(context.Background(), "user-1")

	require.Equal(t, 0, publisher.count())
}

func TestCheckUserPublishesAndMarksSentOnce(t *testing.T) {
	sessions := newTestSessions(t)
	core := newCoreServer(t, "UTC")
	publisher := &fakePublisher{}

	currentHour := time.Now().UTC().Hour()
	svc := New(core, sessions, publisher, currentHour, time.Minute, 500, []string{"user-1"}, testLogger())

	svc.checkUser(context.Background(), "user-1")
	require.Equal(t, 1, publisher.count())

	// A second check the same day must not publish again.
	svc.checkUser(context.Background(), "user-1")
	require.Equal(t, 1, publisher.count())

	date := time.Now().UTC().Format("2006-01-02")
	sent, err := sessions.DigestSent(context.Background(), "user-1", date)
	require.NoError(t, err)
	require.True(t, sent)
}

func TestCheckUserFallsBackToUTCOnInvalidTimezone(t *testing.T) {
	sessions := newTestSessions(t)
	core := newCoreServer(t, "Not/AZone")
	publisher := &fakePublisher{}

	currentHour := time.Now().UTC().Hour()
	svc := New(core, sessions, publisher, currentHour, time.Minute, 500, []string{"user-1"}, testLogger())
	svc.checkUser(context.Background(), "user-1")

	require.Equal(t, 1, publisher.count())
}
