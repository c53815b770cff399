package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/fts"
	"github.com/nyxlabs/recall/pkg/models"
)

// SuggestedTagTTL is how long a suggested (unconfirmed) tag lives before
// the scheduler expires it.
const SuggestedTagTTL = 7 * 24 * time.Hour

// AddTags attaches tags to a memory with the given status. Confirmed tags
// on a confirmed memory immediately participate in search; suggested tags
// never do.
func (s *Store) AddTags(ctx context.Context, actor string, memoryID uuid.UUID, tags []string, status models.TagStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, tag := range tags {
			var suggestedAt, confirmedAt *time.Time
			if status == models.TagSuggested {
				suggestedAt = &now
			} else {
				confirmedAt = &now
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO memory_tags (memory_id, tag, status, suggested_at, confirmed_at)
				VALUES ($1,$2,$3,$4,$5)
				ON CONFLICT (memory_id, tag) DO UPDATE SET
					status = EXCLUDED.status, suggested_at = EXCLUDED.suggested_at, confirmed_at = EXCLUDED.confirmed_at`,
				memoryID, tag, string(status), suggestedAt, confirmedAt); err != nil {
				return fmt.Errorf("inserting memory tag %q: %w", tag, err)
			}
		}
		if err := audit(ctx, tx, "memory", memoryID.String(), models.AuditCreated, actor,
			map[string]any{"tags": tags, "status": status}); err != nil {
			return err
		}
		return s.reindexIfConfirmed(ctx, tx, memoryID)
	})
}

// DeleteTag removes a single tag row and re-indexes the memory if needed.
func (s *Store) DeleteTag(ctx context.Context, actor string, memoryID uuid.UUID, tag string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = $1 AND tag = $2`, memoryID, tag)
		if err != nil {
			return fmt.Errorf("deleting memory tag: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("tag %q not found on memory %s", tag, memoryID)
		}
		if err := audit(ctx, tx, "memory", memoryID.String(), models.AuditDeleted, actor, map[string]any{"tag": tag}); err != nil {
			return err
		}
		return s.reindexIfConfirmed(ctx, tx, memoryID)
	})
}

// reindexIfConfirmed re-derives the FTS tag string for a memory only if the
// memory itself is confirmed (pending memories must have no FTS row).
func (s *Store) reindexIfConfirmed(ctx context.Context, tx *sql.Tx, memoryID uuid.UUID) error {
	m, err := s.getMemory(ctx, tx, memoryID)
	if err != nil {
		return err
	}
	if m.Status != models.MemoryConfirmed {
		return nil
	}
	tags, err := confirmedTagString(ctx, tx, memoryID)
	if err != nil {
		return err
	}
	return fts.Reindex(ctx, tx, memoryID.String(), m.Content, tags)
}

// ExpireSuggestedTags deletes suggested tags older than SuggestedTagTTL and
// audits the owning memory (scheduler Action C).
func (s *Store) ExpireSuggestedTags(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-SuggestedTagTTL)
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT memory_id, tag FROM memory_tags WHERE status = 'suggested' AND suggested_at <= $1`, cutoff)
		if err != nil {
			return fmt.Errorf("selecting expired suggested tags: %w", err)
		}
		type expired struct {
			memoryID uuid.UUID
			tag      string
		}
		var batch []expired
		for rows.Next() {
			var e expired
			if err := rows.Scan(&e.memoryID, &e.tag); err != nil {
				rows.Close() //nolint:errcheck
				return err
			}
			batch = append(batch, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close() //nolint:errcheck

		for _, e := range batch {
			if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = $1 AND tag = $2`, e.memoryID, e.tag); err != nil {
				return fmt.Errorf("deleting expired tag: %w", err)
			}
			if err := audit(ctx, tx, "memory", e.memoryID.String(), models.AuditExpired, "scheduler",
				map[string]any{"tag": e.tag, "reason": "suggested_tag_expiry"}); err != nil {
				return err
			}
		}
		count = len(batch)
		return nil
	})
	return count, err
}
