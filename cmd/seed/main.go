// Package main provides demo data seeding for OpsLedger: one tenant,
// an org chart with reporting lines, role-based approval policies for
// all four entity types and a few sample requests. Idempotent; safe to
// re-run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/config"
	"opsledger.io/opsledger/internal/infrastructure"
	"opsledger.io/opsledger/internal/pkg/logger"
	"opsledger.io/opsledger/internal/repository"
)

const (
	tenantID   = "tn-demo"
	tenantName = "Demo Corp"

	// Demo credentials. Override before exposing the instance anywhere.
	defaultPassword = "opsledger-demo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	logger.Info("Starting data seeding...")

	if err := seedTenant(ctx, db); err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}
	if err := seedMembers(ctx, db); err != nil {
		return fmt.Errorf("seed members: %w", err)
	}
	if err := seedPolicies(ctx, db); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	if err := seedSampleRequests(ctx, db); err != nil {
		return fmt.Errorf("seed sample requests: %w", err)
	}

	logger.Info("Data seeding completed successfully")
	return nil
}

func seedTenant(ctx context.Context, db *infrastructure.DatabaseClients) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO tenants (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`,
		tenantID, tenantName,
	)
	return err
}

// seedMember describes one org chart entry.
type seedMember struct {
	ID         string
	Name       string
	Email      string
	Roles      []string
	IsAdmin    bool
	CanApprove bool
	ManagerID  string
}

func orgChart() []seedMember {
	return []seedMember{
		{ID: "mb-root", Name: "Dana Root", Email: "dana@demo.test", Roles: []string{"CEO"}, IsAdmin: true, CanApprove: true},
		{ID: "mb-hr", Name: "Hana People", Email: "hana@demo.test", Roles: []string{"HR_ADMIN"}, CanApprove: true, ManagerID: "mb-root"},
		{ID: "mb-fin", Name: "Felix Ledger", Email: "felix@demo.test", Roles: []string{"FINANCE_ADMIN"}, CanApprove: true, ManagerID: "mb-root"},
		{ID: "mb-mgr", Name: "Mira Lead", Email: "mira@demo.test", Roles: []string{"ENGINEERING"}, CanApprove: true, ManagerID: "mb-root"},
		{ID: "mb-dev", Name: "Devon Maker", Email: "devon@demo.test", Roles: []string{"ENGINEERING"}, ManagerID: "mb-mgr"},
	}
}

func seedMembers(ctx context.Context, db *infrastructure.DatabaseClients) error {
	members := repository.NewMemberRepository(db.Pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}

	for _, m := range orgChart() {
		err := members.CreateMember(ctx, tenantID, approval.MemberInfo{
			ID:                 m.ID,
			Name:               m.Name,
			Email:              m.Email,
			Roles:              m.Roles,
			IsAdmin:            m.IsAdmin,
			CanApprove:         m.CanApprove,
			ReportingManagerID: m.ManagerID,
		}, string(hash))
		if err != nil {
			// Re-runs hit the primary key; skip quietly.
			logger.Warn("member already present, skipping",
				zap.String("member_id", m.ID),
				zap.Error(err),
			)
		}
	}

	logger.Info("Seeded members", zap.Int("count", len(orgChart())))
	return nil
}

func seedPolicies(ctx context.Context, db *infrastructure.DatabaseClients) error {
	policies := repository.NewPolicyRepository(db.Pool)

	amount := func(v float64) *float64 { return &v }
	seed := []*approval.Policy{
		{
			ID: "pl-leave", TenantID: tenantID, EntityType: approval.EntityLeaveRequest,
			Name: "Leave approval", Enabled: true,
			Levels: []approval.Level{
				{Order: 1, RequiredRole: approval.RoleManager},
				{Order: 2, RequiredRole: "HR_ADMIN"},
			},
		},
		{
			ID: "pl-purchase", TenantID: tenantID, EntityType: approval.EntityPurchaseRequest,
			Name: "Purchase approval", Enabled: true,
			Levels: []approval.Level{
				{Order: 1, RequiredRole: approval.RoleManager},
				{Order: 2, RequiredRole: "FINANCE_ADMIN", MinAmount: amount(5000)},
				{Order: 3, RequiredRole: "CEO", MinAmount: amount(20000)},
			},
		},
		{
			ID: "pl-asset", TenantID: tenantID, EntityType: approval.EntityAssetRequest,
			Name: "Asset approval", Enabled: true,
			Levels: []approval.Level{
				{Order: 1, RequiredRole: approval.RoleManager},
			},
		},
		{
			ID: "pl-payroll", TenantID: tenantID, EntityType: approval.EntityPayrollRun,
			Name: "Payroll approval", Enabled: true,
			Levels: []approval.Level{
				{Order: 1, RequiredRole: "FINANCE_ADMIN"},
				{Order: 2, RequiredRole: "CEO"},
			},
		},
	}

	for _, p := range seed {
		if err := policies.CreatePolicy(ctx, p, "mb-root"); err != nil {
			// Re-runs hit the enabled-policy unique index; skip quietly.
			logger.Warn("policy already present, skipping",
				zap.String("policy", p.Name),
				zap.Error(err),
			)
			continue
		}
		logger.Info("Seeded policy", zap.String("policy", p.Name), zap.Int("levels", len(p.Levels)))
	}
	return nil
}

func seedSampleRequests(ctx context.Context, db *infrastructure.DatabaseClients) error {
	entities := repository.NewEntityRepository(db.Pool)

	lr := &repository.LeaveRequest{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RequesterID: "mb-dev",
		ReferenceNo: "LV-SEED-001",
		LeaveType:   "ANNUAL",
		StartDate:   time.Now().AddDate(0, 0, 14),
		EndDate:     time.Now().AddDate(0, 0, 18),
		Days:        5,
	}
	if err := entities.CreateLeaveRequest(ctx, lr); err != nil {
		logger.Warn("sample leave request already present", zap.Error(err))
	}

	pr := &repository.PurchaseRequest{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RequesterID: "mb-dev",
		ReferenceNo: "PR-SEED-001",
		Title:       "Team workstations",
		Amount:      10000,
		Currency:    "USD",
	}
	if err := entities.CreatePurchaseRequest(ctx, pr); err != nil {
		logger.Warn("sample purchase request already present", zap.Error(err))
	}

	logger.Info("Seeded sample requests")
	return nil
}
