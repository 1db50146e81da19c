package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/approval"
)

// Business entity status values shared by all four request tables.
const (
	EntityStatusPendingApproval = "PENDING_APPROVAL"
	EntityStatusApproved        = "APPROVED"
	EntityStatusRejected        = "REJECTED"
)

// LeaveRequest is one leave request row.
type LeaveRequest struct {
	ID          string
	TenantID    string
	RequesterID string
	ReferenceNo string
	LeaveType   string
	StartDate   time.Time
	EndDate     time.Time
	Days        float64
	Status      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PurchaseRequest is one purchase request row.
type PurchaseRequest struct {
	ID          string
	TenantID    string
	RequesterID string
	ReferenceNo string
	Title       string
	Amount      float64
	Currency    string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssetRequest is one asset request row.
type AssetRequest struct {
	ID          string
	TenantID    string
	RequesterID string
	ReferenceNo string
	AssetName   string
	Reason      string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PayrollRun is one payroll run row.
type PayrollRun struct {
	ID          string
	TenantID    string
	InitiatedBy string
	ReferenceNo string
	Period      string
	TotalAmount float64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntityRepository persists the owning business entities. The chain
// engine never touches these tables; adapters and submit handlers do.
type EntityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates an entity repository.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// CreateLeaveRequest inserts a leave request in PENDING_APPROVAL status.
func (r *EntityRepository) CreateLeaveRequest(ctx context.Context, lr *LeaveRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leave_requests
			(id, tenant_id, requester_id, reference_no, leave_type, start_date, end_date, days, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		lr.ID, lr.TenantID, lr.RequesterID, lr.ReferenceNo, lr.LeaveType,
		lr.StartDate, lr.EndDate, lr.Days, lr.Notes,
	)
	if err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// LeaveRequestByID returns the leave request, or nil when unknown.
func (r *EntityRepository) LeaveRequestByID(ctx context.Context, tenantID, id string) (*LeaveRequest, error) {
	var lr LeaveRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, requester_id, reference_no, leave_type, start_date, end_date,
		       days, status, notes, created_at, updated_at
		FROM leave_requests WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&lr.ID, &lr.TenantID, &lr.RequesterID, &lr.ReferenceNo, &lr.LeaveType,
		&lr.StartDate, &lr.EndDate, &lr.Days, &lr.Status, &lr.Notes, &lr.CreatedAt, &lr.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &lr, nil
}

// SetLeaveRequestStatus flips the leave request's business status.
func (r *EntityRepository) SetLeaveRequestStatus(ctx context.Context, tenantID, id, status string) error {
	return r.setStatus(ctx, "leave_requests", tenantID, id, status)
}

// CreatePurchaseRequest inserts a purchase request in PENDING_APPROVAL
// status.
func (r *EntityRepository) CreatePurchaseRequest(ctx context.Context, pr *PurchaseRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO purchase_requests
			(id, tenant_id, requester_id, reference_no, title, amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pr.ID, pr.TenantID, pr.RequesterID, pr.ReferenceNo, pr.Title, pr.Amount, pr.Currency,
	)
	if err != nil {
		return fmt.Errorf("create purchase request: %w", err)
	}
	return nil
}

// PurchaseRequestByID returns the purchase request, or nil when unknown.
func (r *EntityRepository) PurchaseRequestByID(ctx context.Context, tenantID, id string) (*PurchaseRequest, error) {
	var pr PurchaseRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, requester_id, reference_no, title, amount, currency,
		       status, created_at, updated_at
		FROM purchase_requests WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&pr.ID, &pr.TenantID, &pr.RequesterID, &pr.ReferenceNo, &pr.Title,
		&pr.Amount, &pr.Currency, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase request: %w", err)
	}
	return &pr, nil
}

// SetPurchaseRequestStatus flips the purchase request's business status.
func (r *EntityRepository) SetPurchaseRequestStatus(ctx context.Context, tenantID, id, status string) error {
	return r.setStatus(ctx, "purchase_requests", tenantID, id, status)
}

// CreateAssetRequest inserts an asset request in PENDING_APPROVAL status.
func (r *EntityRepository) CreateAssetRequest(ctx context.Context, ar *AssetRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO asset_requests
			(id, tenant_id, requester_id, reference_no, asset_name, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ar.ID, ar.TenantID, ar.RequesterID, ar.ReferenceNo, ar.AssetName, ar.Reason,
	)
	if err != nil {
		return fmt.Errorf("create asset request: %w", err)
	}
	return nil
}

// AssetRequestByID returns the asset request, or nil when unknown.
func (r *EntityRepository) AssetRequestByID(ctx context.Context, tenantID, id string) (*AssetRequest, error) {
	var ar AssetRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, requester_id, reference_no, asset_name, reason,
		       status, created_at, updated_at
		FROM asset_requests WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&ar.ID, &ar.TenantID, &ar.RequesterID, &ar.ReferenceNo, &ar.AssetName,
		&ar.Reason, &ar.Status, &ar.CreatedAt, &ar.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset request: %w", err)
	}
	return &ar, nil
}

// SetAssetRequestStatus flips the asset request's business status.
func (r *EntityRepository) SetAssetRequestStatus(ctx context.Context, tenantID, id, status string) error {
	return r.setStatus(ctx, "asset_requests", tenantID, id, status)
}

// CreatePayrollRun inserts a payroll run in PENDING_APPROVAL status.
func (r *EntityRepository) CreatePayrollRun(ctx context.Context, run *PayrollRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payroll_runs
			(id, tenant_id, initiated_by, reference_no, period, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.TenantID, run.InitiatedBy, run.ReferenceNo, run.Period, run.TotalAmount,
	)
	if err != nil {
		return fmt.Errorf("create payroll run: %w", err)
	}
	return nil
}

// PayrollRunByID returns the payroll run, or nil when unknown.
func (r *EntityRepository) PayrollRunByID(ctx context.Context, tenantID, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, initiated_by, reference_no, period, total_amount,
		       status, created_at, updated_at
		FROM payroll_runs WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&run.ID, &run.TenantID, &run.InitiatedBy, &run.ReferenceNo, &run.Period,
		&run.TotalAmount, &run.Status, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payroll run: %w", err)
	}
	return &run, nil
}

// SetPayrollRunStatus flips the payroll run's business status.
func (r *EntityRepository) SetPayrollRunStatus(ctx context.Context, tenantID, id, status string) error {
	return r.setStatus(ctx, "payroll_runs", tenantID, id, status)
}

// RequesterID resolves the requester (or initiator) of the entity a
// chain governs. Steps deliberately don't store the requester; the
// owning entity row is the source of truth.
func (r *EntityRepository) RequesterID(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) (string, error) {
	var column, table string
	switch entityType {
	case approval.EntityLeaveRequest:
		table, column = "leave_requests", "requester_id"
	case approval.EntityPurchaseRequest:
		table, column = "purchase_requests", "requester_id"
	case approval.EntityAssetRequest:
		table, column = "asset_requests", "requester_id"
	case approval.EntityPayrollRun:
		table, column = "payroll_runs", "initiated_by"
	default:
		return "", fmt.Errorf("unknown entity type %q", entityType)
	}

	var requesterID string
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1 AND id = $2`, column, table),
		tenantID, entityID,
	).Scan(&requesterID)
	if err == pgx.ErrNoRows {
		return "", fmt.Errorf("entity %s not found", entityID)
	}
	if err != nil {
		return "", fmt.Errorf("resolve requester for %s: %w", table, err)
	}
	return requesterID, nil
}

// setStatus updates one entity row's status. The table name comes from
// a fixed call site, never from input.
func (r *EntityRepository) setStatus(ctx context.Context, table, tenantID, id, status string) error {
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`, table),
		status, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s status: no row for id %s", table, id)
	}
	return nil
}
