// Package fts maintains the full-text search index over confirmed memories.
//
// Postgres has no SQLite-style external-content FTS5 virtual table, so the
// index is a tsvector column (memories.search_vector) maintained under the
// exact same discipline the spec requires of an external-content index: a
// side table fts_meta(memory_id -> content, tags) records the strings last
// folded into the vector, and every re-index is a delete-then-insert pair
// committed in one transaction. Deleting (clearing) the vector without the
// cached strings on hand is refused — the cache is the only supported path
// to a correct delete (spec "index-corruption prevention").
package fts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Execer is satisfied by both *sql.DB and *sql.Tx, so callers can run a
// reindex inside a larger transaction (e.g. alongside a status change) or
// standalone.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// cached returns the (content, tags) strings last written for memoryID, and
// whether a cache row exists at all.
func cached(ctx context.Context, ex Execer, memoryID string) (content, tags string, ok bool, err error) {
	row := ex.QueryRowContext(ctx, `SELECT content, tags FROM fts_meta WHERE memory_id = $1`, memoryID)
	err = row.Scan(&content, &tags)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("loading fts_meta: %w", err)
	}
	return content, tags, true, nil
}

// Reindex re-derives a confirmed memory's search_vector from fresh content
// and tag strings. If a cache row exists, the implicit "delete" uses it (we
// simply overwrite search_vector — there is nothing to separately delete in
// a column-based index, but fts_meta is always updated in the same
// transaction as the vector, preserving the spec's cache invariant). If no
// cache row exists, this is an insert.
func Reindex(ctx context.Context, ex Execer, memoryID, content, tags string) error {
	// The "delete" step of delete-then-insert: without this, a concurrent
	// reader could observe a half-updated vector/cache pair. We fold delete
	// and insert into one UPDATE since Postgres has no separate doc list to
	// retract from; the critical invariant is that fts_meta always matches
	// search_vector after commit.
	if _, _, _, err := cached(ctx, ex, memoryID); err != nil {
		return err
	}

	vectorExpr := `setweight(to_tsvector('english', $2), 'A') || setweight(to_tsvector('english', $3), 'B')`
	if _, err := ex.ExecContext(ctx,
		`UPDATE memories SET search_vector = `+vectorExpr+` WHERE id = $1`,
		memoryID, content, tags); err != nil {
		return fmt.Errorf("updating search_vector: %w", err)
	}

	if _, err := ex.ExecContext(ctx, `
		INSERT INTO fts_meta (memory_id, content, tags) VALUES ($1, $2, $3)
		ON CONFLICT (memory_id) DO UPDATE SET content = EXCLUDED.content, tags = EXCLUDED.tags`,
		memoryID, content, tags); err != nil {
		return fmt.Errorf("writing fts_meta: %w", err)
	}
	return nil
}

// Remove clears a memory's search_vector and drops its cache row. If no
// cache row exists the memory was never indexed and this is a no-op — an
// index delete is only ever performed through the cache, per the spec's
// index-corruption-prevention rule.
func Remove(ctx context.Context, ex Execer, memoryID string) error {
	_, _, ok, err := cached(ctx, ex, memoryID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if _, err := ex.ExecContext(ctx, `UPDATE memories SET search_vector = NULL WHERE id = $1`, memoryID); err != nil {
		return fmt.Errorf("clearing search_vector: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `DELETE FROM fts_meta WHERE memory_id = $1`, memoryID); err != nil {
		return fmt.Errorf("dropping fts_meta row: %w", err)
	}
	return nil
}

// Rebuild truncates the index and cache, then re-indexes every confirmed
// memory from its current content/tags. Intended for maintenance/migration
// runs, not the hot path.
func Rebuild(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE memories SET search_vector = NULL`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_meta`); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT m.id, m.content, COALESCE(string_agg(mt.tag, ' ' ORDER BY mt.tag), '')
		FROM memories m
		LEFT JOIN memory_tags mt ON mt.memory_id = m.id AND mt.status = 'confirmed'
		WHERE m.status = 'confirmed'
		GROUP BY m.id, m.content`)
	if err != nil {
		return fmt.Errorf("scanning confirmed memories: %w", err)
	}
	type row struct{ id, content, tags string }
	var toIndex []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.content, &r.tags); err != nil {
			rows.Close() //nolint:errcheck
			return err
		}
		toIndex = append(toIndex, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close() //nolint:errcheck

	for _, r := range toIndex {
		if err := Reindex(ctx, tx, r.id, r.content, r.tags); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// stopWords is the fixed small stop-word set used when building a query.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "to": true,
	"and": true, "or": true, "in": true, "on": true, "is": true,
	"it": true, "for": true, "at": true, "with": true, "this": true,
}

// BuildMatchExpr tokenizes a raw query, drops stop words (falling back to
// the original tokens if that would drop everything), quotes each token,
// and OR-joins them into a to_tsquery-compatible expression.
func BuildMatchExpr(query string) (string, error) {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty query")
	}
	filtered := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stopWords[strings.ToLower(f)] {
			filtered = append(filtered, f)
		}
	}
	if len(filtered) == 0 {
		filtered = fields
	}
	// The expression is passed as a query parameter, never concatenated
	// into SQL text. Each token is single-quoted (embedded quotes and
	// backslashes escaped) so to_tsquery reads it as a lexeme, never as
	// operator syntax such as '&', '!' or ':'.
	escaper := strings.NewReplacer(`\`, `\\`, "'", "''")
	quoted := make([]string, len(filtered))
	for i, f := range filtered {
		quoted[i] = "'" + escaper.Replace(f) + "'"
	}
	return strings.Join(quoted, " | "), nil
}

// Query describes a search request.
type Query struct {
	Owner      string
	Text       string
	PinnedOnly bool
	Limit      int
	Offset     int
}

// Result is one matched memory row.
type Result struct {
	MemoryID string  `json:"memory_id"`
	Content  string  `json:"content"`
	IsPinned bool    `json:"is_pinned"`
	Rank     float64 `json:"rank"`
}

// Search executes the empty-query policy, match-expression building, and
// pinned-first ordering described in spec.md §4.3 / §8.
func Search(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	trimmed := strings.TrimSpace(q.Text)
	if trimmed == "" {
		if !q.PinnedOnly {
			return nil, ErrEmptyQuery
		}
		return searchPinnedOnly(ctx, db, q)
	}

	matchExpr, err := BuildMatchExpr(trimmed)
	if err != nil {
		return nil, err
	}

	args := []any{q.Owner, matchExpr}
	where := `owner_user_id = $1 AND status = 'confirmed' AND search_vector @@ to_tsquery('english', $2)`
	if q.PinnedOnly {
		where += " AND is_pinned"
	}

	limit, offset := normalizePaging(q.Limit, q.Offset)
	query := fmt.Sprintf(`
		SELECT id, content, is_pinned, ts_rank(search_vector, to_tsquery('english', $2)) AS rank
		FROM memories
		WHERE %s
		ORDER BY is_pinned DESC, rank DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.MemoryID, &r.Content, &r.IsPinned, &r.Rank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func searchPinnedOnly(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	limit, offset := normalizePaging(q.Limit, q.Offset)
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, is_pinned
		FROM memories
		WHERE owner_user_id = $1 AND status = 'confirmed' AND is_pinned
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, limit, offset), q.Owner)
	if err != nil {
		return nil, fmt.Errorf("executing pinned-only search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.MemoryID, &r.Content, &r.IsPinned); err != nil {
			return nil, err
		}
		r.Rank = 0 // neutral score for the empty-query/pinned-only path
		out = append(out, r)
	}
	return out, rows.Err()
}

func normalizePaging(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ErrEmptyQuery is returned when an empty query is rejected (no pinned_only override).
var ErrEmptyQuery = errors.New("search query must not be empty unless pinned_only=true")
