// Package session holds the assistant's per-user conversational state in
// Redis: chat history, a rolling session summary, and the chat gateway's
// pending-action state machine. Generalizes the teacher's in-memory
// map-of-sessions (pkg/session/manager.go) into three independently-TTLed
// Redis-backed stores so state survives process restarts, per SPEC_FULL.md
// §4.4.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one turn in a chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TTLs for the three state kinds this package manages.
const (
	HistoryTTL = 24 * time.Hour
	SummaryTTL = 7 * 24 * time.Hour
	PendingTTL = 24 * time.Hour
)

// Store wraps a Redis client for all three state kinds.
type Store struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func historyKey(userID string) string { return fmt.Sprintf("session:history:%s", userID) }
func summaryKey(userID string) string { return fmt.Sprintf("session:summary:%s", userID) }
func pendingKey(userID string) string { return fmt.Sprintf("session:pending:%s", userID) }

// GetHistory loads the chat history for a user, or an empty slice if none
// is stored (expired or never written).
func (s *Store) GetHistory(ctx context.Context, userID string) ([]Message, error) {
	raw, err := s.rdb.Get(ctx, historyKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("decoding chat history: %w", err)
	}
	return msgs, nil
}

// ReplaceHistory overwrites the stored history and refreshes its TTL. Used
// both to append a new turn (caller loads, appends, replaces) and by the
// summarizer (caller loads, compresses the older half, replaces).
func (s *Store) ReplaceHistory(ctx context.Context, userID string, msgs []Message) error {
	b, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding chat history: %w", err)
	}
	if err := s.rdb.Set(ctx, historyKey(userID), b, HistoryTTL).Err(); err != nil {
		return fmt.Errorf("storing chat history: %w", err)
	}
	return nil
}

// AppendHistory loads, appends msg, and replaces in one call.
func (s *Store) AppendHistory(ctx context.Context, userID string, msg Message) error {
	msgs, err := s.GetHistory(ctx, userID)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)
	return s.ReplaceHistory(ctx, userID, msgs)
}

// ClearHistory deletes a user's chat history.
func (s *Store) ClearHistory(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

// GetSummary loads the rolling session summary, or "" if none exists.
func (s *Store) GetSummary(ctx context.Context, userID string) (string, error) {
	raw, err := s.rdb.Get(ctx, summaryKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading session summary: %w", err)
	}
	return raw, nil
}

// SetSummary stores the session summary, refreshing its 7-day TTL.
func (s *Store) SetSummary(ctx context.Context, userID, summary string) error {
	if err := s.rdb.Set(ctx, summaryKey(userID), summary, SummaryTTL).Err(); err != nil {
		return fmt.Errorf("storing session summary: %w", err)
	}
	return nil
}
