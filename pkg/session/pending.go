package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PendingState names a step in the chat gateway's pending-action state
// machine. The gateway uses this to know how to interpret the user's next
// message (e.g. a bare list of words is either free chat or a reply to a
// tag-confirmation prompt, depending on state).
type PendingState string

const (
	// StateIdle is the default: the next message starts a fresh turn.
	StateIdle PendingState = "idle"
	// StateAwaitingTags means the gateway is waiting on the user to
	// confirm or edit a suggested tag list for a memory.
	StateAwaitingTags PendingState = "awaiting_tags"
	// StateAwaitingDueDate means the gateway is waiting on the user to
	// supply or confirm a due date for a task.
	StateAwaitingDueDate PendingState = "awaiting_due_date"
	// StateAwaitingReminderTime means the gateway is waiting on the user
	// to supply or confirm a fire time for a reminder.
	StateAwaitingReminderTime PendingState = "awaiting_reminder_time"
	// StateAwaitingEventConfirmation means the gateway is waiting on the
	// user to confirm or reject a detected event.
	StateAwaitingEventConfirmation PendingState = "awaiting_event_confirmation"
)

// PendingAction is the gateway's current state for one user, plus whatever
// context it needs to resolve the next reply (e.g. the memory_id awaiting
// tag confirmation).
type PendingAction struct {
	State PendingState   `json:"state"`
	Data  map[string]any `json:"data,omitempty"`
}

// GetPendingAction loads a user's pending-action state, defaulting to idle
// if none is stored (expired or never written).
func (s *Store) GetPendingAction(ctx context.Context, userID string) (PendingAction, error) {
	raw, err := s.rdb.Get(ctx, pendingKey(userID)).Result()
	if err == redis.Nil {
		return PendingAction{State: StateIdle}, nil
	}
	if err != nil {
		return PendingAction{}, fmt.Errorf("loading pending action: %w", err)
	}
	var pa PendingAction
	if err := json.Unmarshal([]byte(raw), &pa); err != nil {
		return PendingAction{}, fmt.Errorf("decoding pending action: %w", err)
	}
	return pa, nil
}

// SetPendingAction transitions a user into a new pending state. Passing
// StateIdle clears stored context and is equivalent to ClearPendingAction.
func (s *Store) SetPendingAction(ctx context.Context, userID string, pa PendingAction) error {
	if pa.State == StateIdle {
		return s.ClearPendingAction(ctx, userID)
	}
	b, err := json.Marshal(pa)
	if err != nil {
		return fmt.Errorf("encoding pending action: %w", err)
	}
	if err := s.rdb.Set(ctx, pendingKey(userID), b, PendingTTL).Err(); err != nil {
		return fmt.Errorf("storing pending action: %w", err)
	}
	return nil
}

// ClearPendingAction returns a user to the idle state.
func (s *Store) ClearPendingAction(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing pending action: %w", err)
	}
	return nil
}
