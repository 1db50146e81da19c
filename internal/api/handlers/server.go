// Package handlers implements the HTTP API on gin. Handlers translate
// between the wire and the approval engine's function-call boundary;
// soft engine results map onto HTTP statuses here, never inside the
// engine.
package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"opsledger.io/opsledger/internal/api/middleware"
	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
)

// Server implements all API handlers.
type Server struct {
	pool          *pgxpool.Pool
	jwtCfg        middleware.JWTConfig
	approvals     *approval.Service
	steps         *repository.StepRepository
	policies      *repository.PolicyRepository
	members       *repository.MemberRepository
	notifications *repository.NotificationRepository
	entities      *repository.EntityRepository
	audit         *repository.AuditRepository
}

// ServerDeps holds all dependencies for creating a Server. Manual DI,
// no wire framework.
type ServerDeps struct {
	Pool          *pgxpool.Pool
	JWTCfg        middleware.JWTConfig
	Approvals     *approval.Service
	Steps         *repository.StepRepository
	Policies      *repository.PolicyRepository
	Members       *repository.MemberRepository
	Notifications *repository.NotificationRepository
	Entities      *repository.EntityRepository
	Audit         *repository.AuditRepository
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		pool:          deps.Pool,
		jwtCfg:        deps.JWTCfg,
		approvals:     deps.Approvals,
		steps:         deps.Steps,
		policies:      deps.Policies,
		members:       deps.Members,
		notifications: deps.Notifications,
		entities:      deps.Entities,
		audit:         deps.Audit,
	}
}

// callerIdentity extracts the authenticated member and tenant from the
// gin context populated by JWTAuth.
func callerIdentity(c interface{ GetString(any) string }) (memberID, tenantID string) {
	return c.GetString("member_id"), c.GetString("tenant_id")
}
