package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nyxlabs/recall/pkg/models"
)

// GetBackupStatus loads the latest backup job status for a user. Backup
// jobs are written by an out-of-band process (see SPEC_FULL.md's Domain
// Stack section); the store only ever reads this table.
func (s *Store) GetBackupStatus(ctx context.Context, userID string) (*models.BackupJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, status, last_run_at, detail FROM backup_jobs WHERE user_id = $1`, userID)
	var b models.BackupJob
	var detail sql.NullString
	err := row.Scan(&b.UserID, &b.Status, &b.LastRunAt, &detail)
	if err == sql.ErrNoRows {
		return &models.BackupJob{UserID: userID, Status: "never_run"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading backup status: %w", err)
	}
	b.Detail = detail.String
	return &b, nil
}
