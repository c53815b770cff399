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

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, actor string, t *models.Task) (*models.Task, error) {
	t.ID = uuid.New()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.State == "" {
		t.State = models.TaskNotDone
	}
	if !t.State.Valid() {
		return nil, apierr.Validationf("state", "invalid task state %q", t.State)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, owner_user_id, memory_id, description, state, due_at, recurrence_minutes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, t.OwnerUserID, t.MemoryID, t.Description, string(t.State), t.DueAt, t.RecurrenceMinutes, t.CreatedAt, t.UpdatedAt); err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}
		return audit(ctx, tx, "task", t.ID.String(), models.AuditCreated, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	var state string
	if err := row.Scan(&t.ID, &t.OwnerUserID, &t.MemoryID, &t.Description, &state, &t.DueAt, &t.RecurrenceMinutes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "task not found")
	}
	t.State = models.TaskState(state)
	return &t, nil
}

// GetTask loads a task by id.
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, memory_id, description, state, due_at, recurrence_minutes, created_at, updated_at
		FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// ListTasks returns tasks for an owner, optionally filtered by state.
func (s *Store) ListTasks(ctx context.Context, owner string, state *models.TaskState, limit int) ([]*models.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, owner_user_id, memory_id, description, state, due_at, recurrence_minutes, created_at, updated_at
		FROM tasks WHERE owner_user_id = $1`
	args := []any{owner}
	if state != nil {
		query += ` AND state = $2`
		args = append(args, string(*state))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		var t models.Task
		var st string
		if err := rows.Scan(&t.ID, &t.OwnerUserID, &t.MemoryID, &t.Description, &st, &t.DueAt, &t.RecurrenceMinutes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.State = models.TaskState(st)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// TaskPatch carries the optional fields a PATCH /tasks/{id} may change.
type TaskPatch struct {
	Description       *string
	State             *models.TaskState
	DueAt             **time.Time
	RecurrenceMinutes **int
}

// UpdateTask applies a partial update.
func (s *Store) UpdateTask(ctx context.Context, actor string, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	var result *models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, owner_user_id, memory_id, description, state, due_at, recurrence_minutes, created_at, updated_at
			FROM tasks WHERE id = $1`, id)
		cur, err := scanTask(row)
		if err != nil {
			return err
		}
		if patch.Description != nil {
			cur.Description = *patch.Description
		}
		if patch.State != nil {
			if !patch.State.Valid() {
				return apierr.Validationf("state", "invalid task state %q", *patch.State)
			}
			cur.State = *patch.State
		}
		if patch.DueAt != nil {
			cur.DueAt = *patch.DueAt
		}
		if patch.RecurrenceMinutes != nil {
			cur.RecurrenceMinutes = *patch.RecurrenceMinutes
		}
		cur.UpdatedAt = time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET description = $1, state = $2, due_at = $3, recurrence_minutes = $4, updated_at = $5
			WHERE id = $6`,
			cur.Description, string(cur.State), cur.DueAt, cur.RecurrenceMinutes, cur.UpdatedAt, id); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		if err := audit(ctx, tx, "task", id.String(), models.AuditUpdated, actor, nil); err != nil {
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

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, actor string, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apierr.NotFoundf("task %s not found", id)
		}
		return audit(ctx, tx, "task", id.String(), models.AuditDeleted, actor, nil)
	})
}
