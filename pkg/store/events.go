package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/models"
)

// StalePendingEventAge is how long a pending event sits before it is
// re-prompted by the scheduler (Action D).
const StalePendingEventAge = 24 * time.Hour

const eventCols = `id, owner_user_id, description, event_time, status, pending_since, source_type, created_at, updated_at`

// CreateEvent inserts a new event. Pending events get pending_since = now.
func (s *Store) CreateEvent(ctx context.Context, actor string, e *models.Event) (*models.Event, error) {
	e.ID = uuid.New()
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Status == "" {
		e.Status = models.EventPending
	}
	if !e.Status.Valid() {
		return nil, apierr.Validationf("status", "invalid event status %q", e.Status)
	}
	if e.Status == models.EventPending && e.PendingSince == nil {
		e.PendingSince = &now
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, owner_user_id, description, event_time, status, pending_since, source_type, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			e.ID, e.OwnerUserID, e.Description, e.EventTime, string(e.Status), e.PendingSince, e.SourceType, e.CreatedAt, e.UpdatedAt); err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
		return audit(ctx, tx, "event", e.ID.String(), models.AuditCreated, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanEvent(row *sql.Row) (*models.Event, error) {
	var e models.Event
	var status string
	if err := row.Scan(&e.ID, &e.OwnerUserID, &e.Description, &e.EventTime, &status, &e.PendingSince, &e.SourceType, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "event not found")
	}
	e.Status = models.EventStatus(status)
	return &e, nil
}

// GetEvent loads an event by id.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// ListEvents filters by owner and optional status.
func (s *Store) ListEvents(ctx context.Context, owner string, status *models.EventStatus, limit int) ([]*models.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + eventCols + ` FROM events WHERE owner_user_id = $1`
	args := []any{owner}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(` ORDER BY event_time ASC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()
	var out []*models.Event
	for rows.Next() {
		var e models.Event
		var st string
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.Description, &e.EventTime, &st, &e.PendingSince, &e.SourceType, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = models.EventStatus(st)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// EventPatch carries the optional fields a PATCH /events/{id} may change.
type EventPatch struct {
	Description *string
	EventTime   *time.Time
	Status      *models.EventStatus
}

// UpdateEvent applies a partial update. Confirming/rejecting an event clears
// pending_since since it leaves the pending state.
func (s *Store) UpdateEvent(ctx context.Context, actor string, id uuid.UUID, patch EventPatch) (*models.Event, error) {
	var result *models.Event
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id)
		cur, err := scanEvent(row)
		if err != nil {
			return err
		}
		if patch.Description != nil {
			cur.Description = *patch.Description
		}
		if patch.EventTime != nil {
			cur.EventTime = *patch.EventTime
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return apierr.Validationf("status", "invalid event status %q", *patch.Status)
			}
			cur.Status = *patch.Status
			if cur.Status != models.EventPending {
				cur.PendingSince = nil
			} else if cur.PendingSince == nil {
				now := time.Now().UTC()
				cur.PendingSince = &now
			}
		}
		cur.UpdatedAt = time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `
			UPDATE events SET description = $1, event_time = $2, status = $3, pending_since = $4, updated_at = $5
			WHERE id = $6`,
			cur.Description, cur.EventTime, string(cur.Status), cur.PendingSince, cur.UpdatedAt, id); err != nil {
			return fmt.Errorf("updating event: %w", err)
		}
		if err := audit(ctx, tx, "event", id.String(), models.AuditUpdated, actor, nil); err != nil {
			return err
		}
		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SelectStalePendingEvents returns pending events whose pending_since is
// older than StalePendingEventAge (scheduler Action D).
func (s *Store) SelectStalePendingEvents(ctx context.Context) ([]*models.Event, error) {
	cutoff := time.Now().UTC().Add(-StalePendingEventAge)
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventCols+` FROM events WHERE status = 'pending' AND pending_since <= $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("selecting stale pending events: %w", err)
	}
	defer rows.Close()
	var out []*models.Event
	for rows.Next() {
		var e models.Event
		var st string
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.Description, &e.EventTime, &st, &e.PendingSince, &e.SourceType, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = models.EventStatus(st)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// RequeueStaleEvents refreshes pending_since for the given events in one
// transaction and audits each as requeued (scheduler Action D). Publishing
// the event_reprompt notification is the scheduler's responsibility before
// calling this, mirroring the reminder-firing ordering.
func (s *Store) RequeueStaleEvents(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, e := range events {
			if _, err := tx.ExecContext(ctx, `UPDATE events SET pending_since = $1, updated_at = $1 WHERE id = $2`, now, e.ID); err != nil {
				return fmt.Errorf("requeuing event: %w", err)
			}
			if err := audit(ctx, tx, "event", e.ID.String(), models.AuditRequeued, "scheduler", nil); err != nil {
				return err
			}
		}
		return nil
	})
}
