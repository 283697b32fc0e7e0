package postgres

import (
	"context"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

// AuditRepository は PostgreSQL を利用した監査記録永続化の実装です。
// Details は JSONB 列に保存されます。
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Record は監査記録を追記します。状態遷移と同一トランザクション内で呼び出されます。
func (r *AuditRepository) Record(ctx context.Context, entry *audit.Entry) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO audit_entries (entity_type, entity_id, action, performed_by, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		entry.EntityType,
		entry.EntityID,
		string(entry.Action),
		entry.PerformedBy,
		entry.Details,
		entry.CreatedAt,
	)
	return err
}

// ListByEntity は対象エンティティの監査記録を新しい順で返します。
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*audit.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, entity_type, entity_id, action, performed_by, details, created_at
          FROM audit_entries
         WHERE entity_type = $1 AND entity_id = $2
         ORDER BY created_at DESC, id DESC
    `, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			e      audit.Entry
			action string
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &e.PerformedBy, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = audit.Action(action)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
