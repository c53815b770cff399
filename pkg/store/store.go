// Package store is the repository layer over PostgreSQL: one file per
// aggregate, hand-written SQL via database/sql + pgx/v5's stdlib driver.
//
// The teacher module (codeready-toolchain/tarsy) uses entgo.io/ent for this
// layer; Ent's client is generated code produced by `go generate`, which
// this exercise cannot run, so this layer is written directly against
// database/sql instead (see DESIGN.md). The shape — one *Store wrapping a
// pooled *sql.DB, one method set per aggregate, every mutation audited in
// the same transaction — mirrors the teacher's pkg/services layering.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/models"
)

// Store is the shared repository handle. All methods are safe for
// concurrent use; PostgreSQL's write-ahead log serializes writers.
type Store struct {
	db *sql.DB
}

// New wraps a pooled database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool for callers that need raw queries (fts.Search).
func (s *Store) DB() *sql.DB { return s.db }

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// audit inserts one append-only audit record as part of the caller's transaction.
func audit(ctx context.Context, ex execer, entityType, entityID string, action models.AuditAction, actor string, detail any) error {
	var detailJSON []byte
	if detail != nil {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO audit_records (entity_type, entity_id, action, actor, detail, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entityType, entityID, string(action), actor, nullableJSON(detailJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func wrapNotFound(err error, format string, args ...any) error {
	if err == sql.ErrNoRows {
		return apierr.NotFoundf(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
