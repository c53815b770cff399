package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nyxlabs/recall/pkg/models"
)

// GetSettings loads a user's settings, returning sensible defaults if the
// row doesn't exist yet (no row is created until the first Upsert).
func (s *Store) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, timezone, language, updated_at FROM user_settings WHERE user_id = $1`, userID)
	var u models.UserSettings
	err := row.Scan(&u.UserID, &u.Timezone, &u.Language, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.UserSettings{UserID: userID, Timezone: "UTC", Language: "en"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user settings: %w", err)
	}
	return &u, nil
}

// UpsertSettings writes a user's settings. Applying the same settings
// repeatedly leaves exactly one row per user — idempotent by construction
// via ON CONFLICT.
func (s *Store) UpsertSettings(ctx context.Context, u *models.UserSettings) (*models.UserSettings, error) {
	u.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, timezone, language, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE SET
			timezone = EXCLUDED.timezone, language = EXCLUDED.language, updated_at = EXCLUDED.updated_at`,
		u.UserID, u.Timezone, u.Language, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting user settings: %w", err)
	}
	return u, nil
}
