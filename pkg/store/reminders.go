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

// CreateReminder inserts a new unfired reminder.
func (s *Store) CreateReminder(ctx context.Context, actor string, r *models.Reminder) (*models.Reminder, error) {
	r.ID = uuid.New()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Fired = false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (id, owner_user_id, memory_id, text, fire_at, fired, recurrence_minutes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			r.ID, r.OwnerUserID, r.MemoryID, r.Text, r.FireAt, r.Fired, r.RecurrenceMinutes, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("inserting reminder: %w", err)
		}
		return audit(ctx, tx, "reminder", r.ID.String(), models.AuditCreated, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanReminder(row *sql.Row) (*models.Reminder, error) {
	var r models.Reminder
	if err := row.Scan(&r.ID, &r.OwnerUserID, &r.MemoryID, &r.Text, &r.FireAt, &r.Fired, &r.RecurrenceMinutes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "reminder not found")
	}
	return &r, nil
}

const reminderCols = `id, owner_user_id, memory_id, text, fire_at, fired, recurrence_minutes, created_at, updated_at`

// GetReminder loads a reminder by id.
func (s *Store) GetReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = $1`, id)
	return scanReminder(row)
}

// ListReminders filters by owner and optionally fired/upcoming-only.
func (s *Store) ListReminders(ctx context.Context, owner string, fired *bool, upcomingOnly bool, limit int) ([]*models.Reminder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + reminderCols + ` FROM reminders WHERE owner_user_id = $1`
	args := []any{owner}
	if fired != nil {
		query += fmt.Sprintf(` AND fired = $%d`, len(args)+1)
		args = append(args, *fired)
	}
	if upcomingOnly {
		query += fmt.Sprintf(` AND fired = false AND fire_at >= $%d`, len(args)+1)
		args = append(args, time.Now().UTC())
	}
	query += fmt.Sprintf(` ORDER BY fire_at ASC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()
	var out []*models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.ID, &r.OwnerUserID, &r.MemoryID, &r.Text, &r.FireAt, &r.Fired, &r.RecurrenceMinutes, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ReminderPatch carries the optional fields a PATCH /reminders/{id} may change.
type ReminderPatch struct {
	Text              *string
	FireAt            *time.Time
	RecurrenceMinutes **int
}

// UpdateReminder applies a partial update.
func (s *Store) UpdateReminder(ctx context.Context, actor string, id uuid.UUID, patch ReminderPatch) (*models.Reminder, error) {
	var result *models.Reminder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = $1`, id)
		cur, err := scanReminder(row)
		if err != nil {
			return err
		}
		if patch.Text != nil {
			cur.Text = *patch.Text
		}
		if patch.FireAt != nil {
			cur.FireAt = *patch.FireAt
		}
		if patch.RecurrenceMinutes != nil {
			cur.RecurrenceMinutes = *patch.RecurrenceMinutes
		}
		cur.UpdatedAt = time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `
			UPDATE reminders SET text = $1, fire_at = $2, recurrence_minutes = $3, updated_at = $4 WHERE id = $5`,
			cur.Text, cur.FireAt, cur.RecurrenceMinutes, cur.UpdatedAt, id); err != nil {
			return fmt.Errorf("updating reminder: %w", err)
		}
		if err := audit(ctx, tx, "reminder", id.String(), models.AuditUpdated, actor, nil); err != nil {
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

// DeleteReminder removes a reminder.
func (s *Store) DeleteReminder(ctx context.Context, actor string, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting reminder: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apierr.NotFoundf("reminder %s not found", id)
		}
		return audit(ctx, tx, "reminder", id.String(), models.AuditDeleted, actor, nil)
	})
}

// DueReminder is a reminder ready to fire, joined with its memory's content
// for notification payloads.
type DueReminder struct {
	Reminder      models.Reminder
	MemoryContent string
}

// SelectDueReminders returns unfired reminders with fire_at <= now. Read-only:
// the scheduler publishes notifications for these before calling
// CommitFiredReminders, per spec.md §4.2's at-least-once ordering.
func (s *Store) SelectDueReminders(ctx context.Context) ([]DueReminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.owner_user_id, r.memory_id, r.text, r.fire_at, r.fired, r.recurrence_minutes, r.created_at, r.updated_at,
			COALESCE(m.content, '')
		FROM reminders r
		LEFT JOIN memories m ON m.id = r.memory_id
		WHERE r.fired = false AND r.fire_at <= $1`, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("selecting due reminders: %w", err)
	}
	defer rows.Close()
	var out []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.Reminder.ID, &d.Reminder.OwnerUserID, &d.Reminder.MemoryID, &d.Reminder.Text,
			&d.Reminder.FireAt, &d.Reminder.Fired, &d.Reminder.RecurrenceMinutes, &d.Reminder.CreatedAt, &d.Reminder.UpdatedAt,
			&d.MemoryContent); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CommitFiredReminders marks the given reminders fired, inserts a successor
// row for each recurring reminder, and audits both — all in one transaction
// committed once at the end of the tick (spec.md §4.2).
func (s *Store) CommitFiredReminders(ctx context.Context, due []DueReminder) error {
	if len(due) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range due {
			if _, err := tx.ExecContext(ctx, `UPDATE reminders SET fired = true, updated_at = $1 WHERE id = $2`,
				time.Now().UTC(), d.Reminder.ID); err != nil {
				return fmt.Errorf("marking reminder fired: %w", err)
			}
			if err := audit(ctx, tx, "reminder", d.Reminder.ID.String(), models.AuditFired, "scheduler", nil); err != nil {
				return err
			}
			if d.Reminder.RecurrenceMinutes != nil {
				successor := models.Reminder{
					ID:                uuid.New(),
					OwnerUserID:       d.Reminder.OwnerUserID,
					MemoryID:          d.Reminder.MemoryID,
					Text:              d.Reminder.Text,
					FireAt:            d.Reminder.FireAt.Add(time.Duration(*d.Reminder.RecurrenceMinutes) * time.Minute),
					Fired:             false,
					RecurrenceMinutes: d.Reminder.RecurrenceMinutes,
					CreatedAt:         time.Now().UTC(),
					UpdatedAt:         time.Now().UTC(),
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO reminders (id, owner_user_id, memory_id, text, fire_at, fired, recurrence_minutes, created_at, updated_at)
					VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
					successor.ID, successor.OwnerUserID, successor.MemoryID, successor.Text, successor.FireAt,
					successor.Fired, successor.RecurrenceMinutes, successor.CreatedAt, successor.UpdatedAt); err != nil {
					return fmt.Errorf("inserting recurrence successor: %w", err)
				}
				if err := audit(ctx, tx, "reminder", successor.ID.String(), models.AuditCreated, "scheduler",
					map[string]any{"source": "recurrence"}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
