package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/logger"
)

type policyLevelRequest struct {
	Order        int      `json:"order" binding:"required,min=1"`
	RequiredRole string   `json:"required_role" binding:"required"`
	MinAmount    *float64 `json:"min_amount"`
}

type createPolicyRequest struct {
	EntityType string               `json:"entity_type" binding:"required"`
	Name       string               `json:"name" binding:"required"`
	Levels     []policyLevelRequest `json:"levels" binding:"required,min=1,dive"`
}

// CreatePolicy handles POST /admin/policies. Admin-gated by the
// router. The partial unique index on enabled policies makes a second
// enabled policy for the same entity type a conflict.
func (s *Server) CreatePolicy(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	var req createPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	entityType := approval.EntityType(req.EntityType)
	if !approval.ValidEntityType(entityType) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown entity type"})
		return
	}

	levels := make([]approval.Level, 0, len(req.Levels))
	for _, l := range req.Levels {
		levels = append(levels, approval.Level{
			Order:        l.Order,
			RequiredRole: l.RequiredRole,
			MinAmount:    l.MinAmount,
		})
	}

	policy := &approval.Policy{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		EntityType: entityType,
		Name:       req.Name,
		Enabled:    true,
		Levels:     levels,
	}
	if err := s.policies.CreatePolicy(c.Request.Context(), policy, memberID); err != nil {
		logger.Error("policy creation failed",
			zap.String("tenant_id", tenantID),
			zap.String("entity_type", req.EntityType),
			zap.Error(err),
		)
		c.JSON(http.StatusConflict, gin.H{"code": "POLICY_CONFLICT", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": policy.ID, "name": policy.Name})
}

// GetActivePolicy handles GET /admin/policies/:entity_type.
func (s *Server) GetActivePolicy(c *gin.Context) {
	_, tenantID := callerIdentity(c)

	entityType, ok := parseEntityType(c.Param("entity_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown entity type"})
		return
	}

	policy, err := s.policies.FindActivePolicy(c.Request.Context(), tenantID, entityType)
	if err != nil {
		logger.Error("policy lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "policy lookup failed"})
		return
	}
	if policy == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "POLICY_NOT_FOUND", "message": "no enabled policy for entity type"})
		return
	}

	levels := make([]gin.H, 0, len(policy.Levels))
	for _, l := range policy.Levels {
		levels = append(levels, gin.H{
			"order":         l.Order,
			"required_role": l.RequiredRole,
			"min_amount":    l.MinAmount,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          policy.ID,
		"entity_type": string(policy.EntityType),
		"name":        policy.Name,
		"enabled":     policy.Enabled,
		"levels":      levels,
	})
}
