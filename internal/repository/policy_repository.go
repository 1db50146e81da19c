package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/approval"
)

// PolicyRepository reads and writes approval policy configuration. It
// implements approval.PolicyStore. Policies are read-only during chain
// processing; writes happen through the admin surface and the seeder.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository creates a policy repository.
func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// FindActivePolicy returns the enabled policy for (tenant, entity type)
// with its levels in order, or nil when none is configured.
func (r *PolicyRepository) FindActivePolicy(ctx context.Context, tenantID string, entityType approval.EntityType) (*approval.Policy, error) {
	p := &approval.Policy{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, entity_type, name, enabled
		FROM approval_policies
		WHERE tenant_id = $1 AND entity_type = $2 AND enabled
		LIMIT 1`,
		tenantID, entityType,
	).Scan(&p.ID, &p.TenantID, &p.EntityType, &p.Name, &p.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active policy: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT level_order, required_role, min_amount
		FROM approval_policy_levels
		WHERE policy_id = $1
		ORDER BY level_order ASC`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("load policy levels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l approval.Level
		if err := rows.Scan(&l.Order, &l.RequiredRole, &l.MinAmount); err != nil {
			return nil, fmt.Errorf("scan policy level: %w", err)
		}
		p.Levels = append(p.Levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy levels: %w", err)
	}

	return p, nil
}

// CreatePolicy inserts a policy and its levels in one transaction.
// Level orders must be contiguous starting at 1.
func (r *PolicyRepository) CreatePolicy(ctx context.Context, p *approval.Policy, createdBy string) error {
	for i, l := range p.Levels {
		if l.Order != i+1 {
			return fmt.Errorf("create policy %s: level orders must be contiguous from 1, got %d at position %d", p.Name, l.Order, i)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create policy tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO approval_policies (id, tenant_id, entity_type, name, enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.TenantID, p.EntityType, p.Name, p.Enabled, createdBy,
	); err != nil {
		return fmt.Errorf("insert policy %s: %w", p.Name, err)
	}

	for _, l := range p.Levels {
		if _, err := tx.Exec(ctx, `
			INSERT INTO approval_policy_levels (id, policy_id, level_order, required_role, min_amount)
			VALUES ($1, $2, $3, $4, $5)`,
			fmt.Sprintf("%s-l%d", p.ID, l.Order), p.ID, l.Order, l.RequiredRole, l.MinAmount,
		); err != nil {
			return fmt.Errorf("insert policy level %d: %w", l.Order, err)
		}
	}

	return tx.Commit(ctx)
}

// compile-time check
var _ approval.PolicyStore = (*PolicyRepository)(nil)
