package store

import (
	"context"
	"fmt"

	"github.com/nyxlabs/recall/pkg/models"
)

// AuditFilter narrows the audit log query endpoint.
type AuditFilter struct {
	EntityType *string
	EntityID   *string
	Action     *models.AuditAction
	Actor      *string
	Limit      int
	Offset     int
}

// ListAuditRecords returns audit records matching filter, ordered newest
// first (timestamp DESC, id DESC — the append-only ordering the audit log
// guarantees even for records written within the same transaction).
func (s *Store) ListAuditRecords(ctx context.Context, filter AuditFilter) ([]*models.AuditRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, entity_type, entity_id, action, actor, detail, timestamp FROM audit_records WHERE 1=1`
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s = $%d", cond, len(args))
	}
	if filter.EntityType != nil {
		add("entity_type", *filter.EntityType)
	}
	if filter.EntityID != nil {
		add("entity_id", *filter.EntityID)
	}
	if filter.Action != nil {
		add("action", string(*filter.Action))
	}
	if filter.Actor != nil {
		add("actor", *filter.Actor)
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()
	var out []*models.AuditRecord
	for rows.Next() {
		var r models.AuditRecord
		var action string
		if err := rows.Scan(&r.ID, &r.EntityType, &r.EntityID, &action, &r.Actor, &r.Detail, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Action = models.AuditAction(action)
		out = append(out, &r)
	}
	return out, rows.Err()
}
