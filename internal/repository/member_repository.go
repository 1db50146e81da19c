package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/approval"
)

const memberColumns = `
	id, name, email, roles, is_admin, can_approve,
	COALESCE(reporting_manager_id, '')`

// MemberRepository resolves team members and role audiences. It
// implements approval.Directory: lookups run fresh on every call, so
// role requirements stay predicates rather than stored user lists.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a member repository.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Member returns one member, or nil when unknown in the tenant.
func (r *MemberRepository) Member(ctx context.Context, tenantID, memberID string) (*approval.MemberInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, memberID,
	)

	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", memberID, err)
	}
	return m, nil
}

// MemberByEmail returns one member by tenant and email, with the
// password hash for credential checks. Nil when unknown.
func (r *MemberRepository) MemberByEmail(ctx context.Context, tenantID, email string) (*approval.MemberInfo, string, error) {
	var hash string
	m := &approval.MemberInfo{}
	err := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`, password_hash
		FROM members
		WHERE tenant_id = $1 AND email = $2`,
		tenantID, email,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Roles, &m.IsAdmin, &m.CanApprove, &m.ReportingManagerID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get member by email: %w", err)
	}
	return m, hash, nil
}

// MembersWithRole returns all tenant members holding the role.
func (r *MemberRepository) MembersWithRole(ctx context.Context, tenantID, role string) ([]approval.MemberInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE tenant_id = $1 AND roles @> ARRAY[$2]::TEXT[]
		ORDER BY name ASC`,
		tenantID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("list members with role %s: %w", role, err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// Admins returns all tenant members with admin privilege.
func (r *MemberRepository) Admins(ctx context.Context, tenantID string) ([]approval.MemberInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE tenant_id = $1 AND is_admin
		ORDER BY name ASC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tenant admins: %w", err)
	}
	defer rows.Close()

	return scanMembers(rows)
}

// CreateMember inserts a member. Used by the seeder and the admin
// surface.
func (r *MemberRepository) CreateMember(ctx context.Context, tenantID string, m approval.MemberInfo, passwordHash string) error {
	var managerID any
	if m.ReportingManagerID != "" {
		managerID = m.ReportingManagerID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO members
			(id, tenant_id, name, email, password_hash, roles, is_admin, can_approve, reporting_manager_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, tenantID, m.Name, m.Email, passwordHash, m.Roles, m.IsAdmin, m.CanApprove, managerID,
	)
	if err != nil {
		return fmt.Errorf("insert member %s: %w", m.ID, err)
	}
	return nil
}

// ── scan helpers ─────────────────────────────────────────────────────

func scanMember(row stepScanner) (*approval.MemberInfo, error) {
	m := &approval.MemberInfo{}
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Roles,
		&m.IsAdmin,
		&m.CanApprove,
		&m.ReportingManagerID,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMembers(rows pgx.Rows) ([]approval.MemberInfo, error) {
	var members []approval.MemberInfo
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// compile-time check
var _ approval.Directory = (*MemberRepository)(nil)
