package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/logger"
)

type actionRequest struct {
	Notes string `json:"notes"`
}

type actionResponse struct {
	ChainExists   bool          `json:"chain_exists"`
	ChainComplete bool          `json:"chain_complete"`
	StepProcessed bool          `json:"step_processed"`
	Outcome       string        `json:"outcome,omitempty"`
	Step          *StepResponse `json:"step,omitempty"`
}

// ApproveStep handles POST /approvals/:entity_type/:entity_id/approve.
func (s *Server) ApproveStep(c *gin.Context) {
	s.processAction(c, approval.ActionApprove)
}

// RejectStep handles POST /approvals/:entity_type/:entity_id/reject.
func (s *Server) RejectStep(c *gin.Context) {
	s.processAction(c, approval.ActionReject)
}

func (s *Server) processAction(c *gin.Context, action approval.Action) {
	memberID, tenantID := callerIdentity(c)

	entityType, ok := parseEntityType(c.Param("entity_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown entity type"})
		return
	}
	entityID := c.Param("entity_id")

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	requesterID, err := s.entities.RequesterID(ctx, tenantID, entityType, entityID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "ENTITY_NOT_FOUND", "message": "entity not found"})
		return
	}

	result, err := s.approvals.Process(ctx, approval.ProcessParams{
		TenantID:    tenantID,
		EntityType:  entityType,
		EntityID:    entityID,
		ApproverID:  memberID,
		RequesterID: requesterID,
		Action:      action,
		Notes:       req.Notes,
	})
	if err != nil {
		logger.Error("approval processing failed",
			zap.String("tenant_id", tenantID),
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID),
			zap.String("approver_id", memberID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "approval processing failed"})
		return
	}

	if !result.ChainExists {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NO_APPROVAL_CHAIN",
			"message": "entity has no approval chain; use the direct approval path",
		})
		return
	}

	switch result.Error {
	case "":
		// fall through to success
	case approval.ReasonNotAuthorized:
		c.JSON(http.StatusForbidden, gin.H{"code": "APPROVER_NOT_AUTHORIZED", "message": result.Error})
		return
	case approval.ReasonStepAlreadyProcessed:
		c.JSON(http.StatusConflict, gin.H{"code": "STEP_ALREADY_PROCESSED", "message": result.Error})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": result.Error})
		return
	}

	resp := actionResponse{
		ChainExists:   result.ChainExists,
		ChainComplete: result.ChainComplete,
		StepProcessed: result.StepProcessed,
		Outcome:       string(result.Outcome),
	}
	if result.Step != nil {
		step := stepToAPI(*result.Step)
		resp.Step = &step
	}
	c.JSON(http.StatusOK, resp)
}

// GetChain handles GET /approvals/:entity_type/:entity_id.
func (s *Server) GetChain(c *gin.Context) {
	_, tenantID := callerIdentity(c)

	entityType, ok := parseEntityType(c.Param("entity_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown entity type"})
		return
	}
	entityID := c.Param("entity_id")

	steps, err := s.approvals.Chain(c.Request.Context(), tenantID, entityType, entityID)
	if err != nil {
		logger.Error("chain lookup failed", zap.String("entity_id", entityID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "chain lookup failed"})
		return
	}
	if len(steps) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NO_APPROVAL_CHAIN", "message": "entity has no approval chain"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"steps": stepsToAPI(steps)})
}

// GetChainAudit handles GET /approvals/:entity_type/:entity_id/audit.
func (s *Server) GetChainAudit(c *gin.Context) {
	_, tenantID := callerIdentity(c)

	entityType, ok := parseEntityType(c.Param("entity_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown entity type"})
		return
	}
	entityID := c.Param("entity_id")

	records, err := s.audit.ListByEntity(c.Request.Context(), tenantID, entityType, entityID)
	if err != nil {
		logger.Error("audit lookup failed", zap.String("entity_id", entityID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "audit lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": auditToAPI(records)})
}

// ListMyPending handles GET /approvals/pending: the caller's queue of
// current steps they can act on. Admins see every current step.
func (s *Server) ListMyPending(c *gin.Context) {
	ctx := c.Request.Context()
	memberID, tenantID := callerIdentity(c)

	member, err := s.members.Member(ctx, tenantID, memberID)
	if err != nil || member == nil {
		logger.Error("pending queue member lookup failed", zap.String("member_id", memberID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "pending queue unavailable"})
		return
	}

	current, err := s.steps.ListCurrentPendingForTenant(ctx, tenantID)
	if err != nil {
		logger.Error("pending queue listing failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "pending queue unavailable"})
		return
	}

	mine := make([]approval.Step, 0, len(current))
	for _, step := range current {
		if s.actionable(ctx, member, step) {
			mine = append(mine, step)
		}
	}

	c.JSON(http.StatusOK, gin.H{"steps": stepsToAPI(mine)})
}

// actionable mirrors the engine's authorization rules for queue
// display: admin override, role match, or manager-of-requester for
// MANAGER steps. The engine re-checks on every action, so a stale
// queue entry can never be acted on.
func (s *Server) actionable(ctx context.Context, member *approval.MemberInfo, step approval.Step) bool {
	if member.IsAdmin {
		return true
	}
	if !member.CanApprove {
		return false
	}
	if step.RequiredRole != approval.RoleManager {
		return member.HasRole(step.RequiredRole)
	}

	requesterID, err := s.entities.RequesterID(ctx, step.TenantID, step.EntityType, step.EntityID)
	if err != nil {
		return false
	}
	requester, err := s.members.Member(ctx, step.TenantID, requesterID)
	if err != nil || requester == nil {
		return false
	}
	return requester.ReportingManagerID == member.ID
}
