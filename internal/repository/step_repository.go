// Package repository provides hand-written pgx repositories over the
// shared connection pool. All approval-step mutations go through
// conditional writes: the status = 'PENDING' predicate in the UPDATE is
// the lock.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/approval"
)

const stepColumns = `
	id, tenant_id, entity_type, entity_id,
	level_order, required_role, status,
	approver_id, action_at, notes,
	created_at, updated_at`

// StepRepository persists approval steps. It implements
// approval.StepStore.
type StepRepository struct {
	pool *pgxpool.Pool
}

// NewStepRepository creates a step repository.
func NewStepRepository(pool *pgxpool.Pool) *StepRepository {
	return &StepRepository{pool: pool}
}

// CountSteps returns the number of steps in the entity's chain.
func (r *StepRepository) CountSteps(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM approval_steps
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3`,
		tenantID, entityType, entityID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count approval steps: %w", err)
	}
	return count, nil
}

// CountPending returns the number of PENDING steps in the chain.
func (r *StepRepository) CountPending(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM approval_steps
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND status = 'PENDING'`,
		tenantID, entityType, entityID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending steps: %w", err)
	}
	return count, nil
}

// ListSteps returns all steps for the entity ordered by level.
func (r *StepRepository) ListSteps(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) ([]approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM approval_steps
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY level_order ASC`,
		tenantID, entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list approval steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

// CurrentPending returns the lowest-level PENDING step, or nil when the
// chain has no pending step left.
func (r *StepRepository) CurrentPending(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) (*approval.Step, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+stepColumns+`
		FROM approval_steps
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND status = 'PENDING'
		ORDER BY level_order ASC
		LIMIT 1`,
		tenantID, entityType, entityID,
	)

	step, err := scanStep(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find current pending step: %w", err)
	}
	return step, nil
}

// CreateSteps inserts the chain in one transaction. ON CONFLICT DO
// NOTHING on the (entity, level) unique key makes retried submissions
// harmless: when nothing was inserted the existing chain is returned.
func (r *StepRepository) CreateSteps(ctx context.Context, steps []approval.Step) ([]approval.Step, bool, error) {
	if len(steps) == 0 {
		return nil, false, fmt.Errorf("create steps: empty chain")
	}
	first := steps[0]

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin create steps tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted int64
	for _, s := range steps {
		tag, err := tx.Exec(ctx, `
			INSERT INTO approval_steps
				(id, tenant_id, entity_type, entity_id, level_order, required_role, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
			ON CONFLICT (entity_type, entity_id, level_order) DO NOTHING`,
			s.ID, s.TenantID, s.EntityType, s.EntityID, s.LevelOrder, s.RequiredRole,
		)
		if err != nil {
			return nil, false, fmt.Errorf("insert step level %d: %w", s.LevelOrder, err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit create steps tx: %w", err)
	}

	chain, err := r.ListSteps(ctx, first.TenantID, first.EntityType, first.EntityID)
	if err != nil {
		return nil, false, err
	}
	return chain, inserted == int64(len(steps)), nil
}

// Claim performs the atomic claim-and-act transition. The conditional
// UPDATE, the rejection cascade and the pending recount run in one
// transaction, so no observer can see a rejected chain with claimable
// later steps.
func (r *StepRepository) Claim(ctx context.Context, claim approval.ClaimParams) (approval.ClaimOutcome, error) {
	var outcome approval.ClaimOutcome

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return outcome, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE approval_steps
		SET status      = $1,
		    approver_id = $2,
		    action_at   = NOW(),
		    notes       = NULLIF($3, ''),
		    updated_at  = NOW()
		WHERE tenant_id = $4 AND entity_type = $5 AND entity_id = $6
		  AND level_order = $7
		  AND status = 'PENDING'
		RETURNING `+stepColumns,
		claim.Target, claim.ApproverID, claim.Notes,
		claim.TenantID, claim.EntityType, claim.EntityID, claim.LevelOrder,
	)

	step, err := scanStep(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Another actor won the race; report the chain state as-is.
		outcome.Claimed = false
	case err != nil:
		return outcome, fmt.Errorf("claim step: %w", err)
	default:
		outcome.Claimed = true
		outcome.Step = step
	}

	if outcome.Claimed && claim.Cascade {
		tag, err := tx.Exec(ctx, `
			UPDATE approval_steps
			SET status = 'SKIPPED', updated_at = NOW()
			WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
			  AND level_order > $4
			  AND status = 'PENDING'`,
			claim.TenantID, claim.EntityType, claim.EntityID, claim.LevelOrder,
		)
		if err != nil {
			return approval.ClaimOutcome{}, fmt.Errorf("cascade skip: %w", err)
		}
		outcome.Skipped = int(tag.RowsAffected())
	}

	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM approval_steps
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND status = 'PENDING'`,
		claim.TenantID, claim.EntityType, claim.EntityID,
	).Scan(&outcome.PendingRemaining)
	if err != nil {
		return approval.ClaimOutcome{}, fmt.Errorf("count pending after claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return approval.ClaimOutcome{}, fmt.Errorf("commit claim tx: %w", err)
	}
	return outcome, nil
}

// ListCurrentPendingForTenant returns every chain's current step (its
// lowest PENDING level) within a tenant, oldest first. Feeds the
// pending-approvals queue and the reminder job.
func (r *StepRepository) ListCurrentPendingForTenant(ctx context.Context, tenantID string) ([]approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM approval_steps s
		WHERE s.tenant_id = $1
		  AND s.status = 'PENDING'
		  AND NOT EXISTS (
			SELECT 1 FROM approval_steps lower
			WHERE lower.entity_type = s.entity_type
			  AND lower.entity_id = s.entity_id
			  AND lower.status = 'PENDING'
			  AND lower.level_order < s.level_order
		  )
		ORDER BY s.created_at ASC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list current pending steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

// ListStalePending returns current steps that have been pending longer
// than the cutoff, across all tenants, for the reminder job.
func (r *StepRepository) ListStalePending(ctx context.Context, cutoffHours int) ([]approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+`
		FROM approval_steps s
		WHERE s.status = 'PENDING'
		  AND s.created_at < NOW() - make_interval(hours => $1)
		  AND NOT EXISTS (
			SELECT 1 FROM approval_steps lower
			WHERE lower.entity_type = s.entity_type
			  AND lower.entity_id = s.entity_id
			  AND lower.status = 'PENDING'
			  AND lower.level_order < s.level_order
		  )
		ORDER BY s.created_at ASC`,
		cutoffHours,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale pending steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

// ── scan helpers ─────────────────────────────────────────────────────

type stepScanner interface {
	Scan(dest ...any) error
}

func scanStep(row stepScanner) (*approval.Step, error) {
	s := &approval.Step{}
	err := row.Scan(
		&s.ID,
		&s.TenantID,
		&s.EntityType,
		&s.EntityID,
		&s.LevelOrder,
		&s.RequiredRole,
		&s.Status,
		&s.ApproverID,
		&s.ActionAt,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSteps(rows pgx.Rows) ([]approval.Step, error) {
	var steps []approval.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval step: %w", err)
		}
		steps = append(steps, *s)
	}
	return steps, rows.Err()
}

// compile-time check
var _ approval.StepStore = (*StepRepository)(nil)
