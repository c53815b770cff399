package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/models"
)

const jobCols = `id, job_type, payload, owner_user_id, status, result, error, created_at, updated_at`

// CreateJob inserts a new LLMJob in the queued state.
func (s *Store) CreateJob(ctx context.Context, j *models.LLMJob) (*models.LLMJob, error) {
	j.ID = uuid.New()
	j.Status = models.JobQueued
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_jobs (id, job_type, payload, owner_user_id, status, result, error, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		j.ID, j.JobType, j.Payload, j.OwnerUserID, string(j.Status), nullableJSON(j.Result), j.Error, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting llm job: %w", err)
	}
	return j, nil
}

func scanJob(row *sql.Row) (*models.LLMJob, error) {
	var j models.LLMJob
	var status string
	var result []byte
	var errMsg sql.NullString
	if err := row.Scan(&j.ID, &j.JobType, &j.Payload, &j.OwnerUserID, &status, &result, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "llm job not found")
	}
	j.Status = models.JobStatus(status)
	j.Result = result
	if errMsg.Valid {
		j.Error = &errMsg.String
	}
	return &j, nil
}

// GetJob loads an LLMJob by id.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*models.LLMJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobCols+` FROM llm_jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ListJobs returns jobs, optionally filtered by status, newest first.
func (s *Store) ListJobs(ctx context.Context, status *models.JobStatus, limit int) ([]*models.LLMJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + jobCols + ` FROM llm_jobs`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing llm jobs: %w", err)
	}
	defer rows.Close()
	var out []*models.LLMJob
	for rows.Next() {
		var j models.LLMJob
		var st string
		var result []byte
		var errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.JobType, &j.Payload, &j.OwnerUserID, &st, &result, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		j.Status = models.JobStatus(st)
		j.Result = result
		if errMsg.Valid {
			j.Error = &errMsg.String
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

// ClaimQueuedJob atomically flips a queued job to processing, returning it.
// Used by the worker's per-job-type consumer loop to guard against a
// redelivered stream message re-entering an already-claimed job.
func (s *Store) ClaimQueuedJob(ctx context.Context, id uuid.UUID) (*models.LLMJob, error) {
	var result *models.LLMJob
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+jobCols+` FROM llm_jobs WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanJob(row)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			result = cur
			return nil
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE llm_jobs SET status = $1, updated_at = $2 WHERE id = $3`,
			string(models.JobProcessing), now, id); err != nil {
			return fmt.Errorf("claiming llm job: %w", err)
		}
		cur.Status = models.JobProcessing
		cur.UpdatedAt = now
		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteJob marks a job completed with its result payload. A no-op if the
// job is already in a terminal state (invariant 3: idempotent re-invocation).
func (s *Store) CompleteJob(ctx context.Context, id uuid.UUID, result []byte) error {
	return s.finishJob(ctx, id, models.JobCompleted, result, nil)
}

// FailJob marks a job failed with an error message. A no-op if the job is
// already terminal.
func (s *Store) FailJob(ctx context.Context, id uuid.UUID, errMsg string) error {
	return s.finishJob(ctx, id, models.JobFailed, nil, &errMsg)
}

func (s *Store) finishJob(ctx context.Context, id uuid.UUID, status models.JobStatus, result []byte, errMsg *string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+jobCols+` FROM llm_jobs WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanJob(row)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE llm_jobs SET status = $1, result = $2, error = $3, updated_at = $4 WHERE id = $5`,
			string(status), nullableJSON(result), errMsg, time.Now().UTC(), id); err != nil {
			return fmt.Errorf("finishing llm job: %w", err)
		}
		return nil
	})
}
