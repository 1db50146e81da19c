package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/approval"
)

// AuditRecord is one stored audit row, including server-assigned fields.
type AuditRecord struct {
	ID         int64
	TenantID   string
	EntityType string
	EntityID   string
	LevelOrder int
	Action     string
	ActorID    string
	Notes      string
	CreatedAt  time.Time
}

// AuditRepository is the append-only audit trail for chain transitions.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates an audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append records one approval action.
func (r *AuditRepository) Append(ctx context.Context, entry approval.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_audit
			(tenant_id, entity_type, entity_id, level_order, action, actor_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.TenantID, string(entry.EntityType), entry.EntityID,
		entry.LevelOrder, entry.Action, entry.ActorID, entry.Notes,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns the entity's audit trail, oldest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) ([]AuditRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, entity_type, entity_id, level_order, action, actor_id, notes, created_at
		FROM approval_audit
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY id`,
		tenantID, string(entityType), entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.EntityType, &rec.EntityID,
			&rec.LevelOrder, &rec.Action, &rec.ActorID, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ approval.AuditSink = (*AuditRepository)(nil)
