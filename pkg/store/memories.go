package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/fts"
	"github.com/nyxlabs/recall/pkg/models"
)

// PendingMediaTTL is how long a pending (unclassified media) memory lives
// before the scheduler expires it.
const PendingMediaTTL = 7 * 24 * time.Hour

// CreateMemory inserts a new memory. Memories with a media reference start
// status=pending with pending_expires_at set; memories without media start
// status=confirmed and are indexed immediately (empty tag set).
func (s *Store) CreateMemory(ctx context.Context, actor string, m *models.Memory) (*models.Memory, error) {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	if m.Media != nil {
		m.Status = models.MemoryPending
		exp := now.Add(PendingMediaTTL)
		m.PendingExpiresAt = &exp
	} else {
		m.Status = models.MemoryConfirmed
		m.PendingExpiresAt = nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var mediaType, blobHandle, localPath any
		if m.Media != nil {
			mediaType, blobHandle, localPath = m.Media.Type, m.Media.BlobHandle, m.Media.LocalPath
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, owner_user_id, content, media_type, media_blob_handle, media_local_path,
				status, pending_expires_at, is_pinned, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			m.ID, m.OwnerUserID, m.Content, mediaType, blobHandle, localPath,
			string(m.Status), m.PendingExpiresAt, m.IsPinned, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting memory: %w", err)
		}
		if m.Status == models.MemoryConfirmed {
			if err := fts.Reindex(ctx, tx, m.ID.String(), m.Content, ""); err != nil {
				return err
			}
		}
		return audit(ctx, tx, "memory", m.ID.String(), models.AuditCreated, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMemory loads a memory by id.
func (s *Store) GetMemory(ctx context.Context, id uuid.UUID) (*models.Memory, error) {
	return s.getMemory(ctx, s.db, id)
}

func (s *Store) getMemory(ctx context.Context, ex execer, id uuid.UUID) (*models.Memory, error) {
	row := ex.QueryRowContext(ctx, `
		SELECT id, owner_user_id, content, media_type, media_blob_handle, media_local_path,
			status, pending_expires_at, is_pinned, created_at, updated_at
		FROM memories WHERE id = $1`, id)
	return scanMemory(row)
}

func scanMemory(row *sql.Row) (*models.Memory, error) {
	var m models.Memory
	var status string
	var mediaType, blobHandle, localPath sql.NullString
	if err := row.Scan(&m.ID, &m.OwnerUserID, &m.Content, &mediaType, &blobHandle, &localPath,
		&status, &m.PendingExpiresAt, &m.IsPinned, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "memory not found")
	}
	m.Status = models.MemoryStatus(status)
	if mediaType.Valid {
		m.Media = &models.MediaRef{Type: mediaType.String, BlobHandle: blobHandle.String, LocalPath: localPath.String}
	}
	return &m, nil
}

// MemoryPatch carries the optional fields a PATCH /memories/{id} may change.
type MemoryPatch struct {
	Content  *string
	IsPinned *bool
	Status   *models.MemoryStatus
}

// UpdateMemory applies a partial update and keeps the FTS index/cache
// consistent with the resulting status (invariant 1 in spec.md §3/§8).
func (s *Store) UpdateMemory(ctx context.Context, actor string, id uuid.UUID, patch MemoryPatch) (*models.Memory, error) {
	var result *models.Memory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.getMemory(ctx, tx, id)
		if err != nil {
			return err
		}

		newStatus := cur.Status
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return apierr.Validationf("status", "invalid memory status %q", *patch.Status)
			}
			newStatus = *patch.Status
		}
		newContent := cur.Content
		if patch.Content != nil {
			newContent = *patch.Content
		}
		newPinned := cur.IsPinned
		if patch.IsPinned != nil {
			newPinned = *patch.IsPinned
		}

		now := time.Now().UTC()
		var pendingExpiresAt *time.Time
		if newStatus == models.MemoryPending {
			if cur.PendingExpiresAt != nil {
				pendingExpiresAt = cur.PendingExpiresAt
			} else {
				exp := now.Add(PendingMediaTTL)
				pendingExpiresAt = &exp
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE memories SET content = $1, is_pinned = $2, status = $3, pending_expires_at = $4, updated_at = $5
			WHERE id = $6`,
			newContent, newPinned, string(newStatus), pendingExpiresAt, now, id); err != nil {
			return fmt.Errorf("updating memory: %w", err)
		}

		if cur.Status == models.MemoryConfirmed && newStatus != models.MemoryConfirmed {
			if err := fts.Remove(ctx, tx, id.String()); err != nil {
				return err
			}
		} else if newStatus == models.MemoryConfirmed {
			tags, err := confirmedTagString(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := fts.Reindex(ctx, tx, id.String(), newContent, tags); err != nil {
				return err
			}
		}

		if err := audit(ctx, tx, "memory", id.String(), models.AuditUpdated, actor, nil); err != nil {
			return err
		}
		result, err = s.getMemory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMemory removes a memory (cascading its tags), scrubs it from the
// FTS index, and audits the deletion. The media blob, if any, is unlinked
// by the caller (pkg/api has the configured media directory).
func (s *Store) DeleteMemory(ctx context.Context, actor string, id uuid.UUID) (*models.Memory, error) {
	var removed *models.Memory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		m, err := s.getMemory(ctx, tx, id)
		if err != nil {
			return err
		}
		removed = m
		if err := fts.Remove(ctx, tx, id.String()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting memory: %w", err)
		}
		return audit(ctx, tx, "memory", id.String(), models.AuditDeleted, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ExpirePendingMemories deletes pending memories whose pending_expires_at has
// passed and audits each as expired (scheduler Action B). Pending memories
// carry no FTS row, so there is nothing to scrub from the index.
func (s *Store) ExpirePendingMemories(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC()
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM memories WHERE status = 'pending' AND pending_expires_at <= $1`, cutoff)
		if err != nil {
			return fmt.Errorf("selecting expired pending memories: %w", err)
		}
		var ids []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close() //nolint:errcheck
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close() //nolint:errcheck

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id); err != nil {
				return fmt.Errorf("deleting expired pending memory: %w", err)
			}
			if err := audit(ctx, tx, "memory", id.String(), models.AuditExpired, "scheduler",
				map[string]any{"reason": "pending_media_expiry"}); err != nil {
				return err
			}
		}
		count = len(ids)
		return nil
	})
	return count, err
}

// confirmedTagString returns the space-joined, sorted list of confirmed tag
// names for a memory — the exact string folded into the FTS "tags" field.
func confirmedTagString(ctx context.Context, ex execer, memoryID uuid.UUID) (string, error) {
	rows, err := ex.QueryContext(ctx, `
		SELECT tag FROM memory_tags WHERE memory_id = $1 AND status = 'confirmed' ORDER BY tag`, memoryID)
	if err != nil {
		return "", fmt.Errorf("loading confirmed tags: %w", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return "", err
		}
		tags = append(tags, t)
	}
	return strings.Join(tags, " "), rows.Err()
}
