package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/logger"
	"opsledger.io/opsledger/internal/repository"
)

type createLeaveRequest struct {
	LeaveType string  `json:"leave_type" binding:"required"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   string  `json:"end_date" binding:"required"`
	Days      float64 `json:"days" binding:"required,gt=0"`
	Notes     string  `json:"notes"`
}

type createPurchaseRequest struct {
	Title    string  `json:"title" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
}

type createAssetRequest struct {
	AssetName string `json:"asset_name" binding:"required"`
	Reason    string `json:"reason"`
}

type createPayrollRun struct {
	Period      string  `json:"period" binding:"required"`
	TotalAmount float64 `json:"total_amount" binding:"required,gt=0"`
}

type submitResponse struct {
	ID           string         `json:"id"`
	ReferenceNo  string         `json:"reference_no"`
	Status       string         `json:"status"`
	ChainCreated bool           `json:"chain_created"`
	Fallback     string         `json:"fallback,omitempty"`
	Chain        []StepResponse `json:"chain"`
}

// CreateLeaveRequest handles POST /requests/leave.
func (s *Server) CreateLeaveRequest(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	var req createLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil || end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "end_date must be YYYY-MM-DD and not before start_date"})
		return
	}

	ctx := c.Request.Context()
	lr := &repository.LeaveRequest{
		ID:          newEntityID(),
		TenantID:    tenantID,
		RequesterID: memberID,
		ReferenceNo: newReference("LV"),
		LeaveType:   req.LeaveType,
		StartDate:   start,
		EndDate:     end,
		Days:        req.Days,
		Notes:       req.Notes,
	}
	if err := s.entities.CreateLeaveRequest(ctx, lr); err != nil {
		logger.Error("create leave request failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not create leave request"})
		return
	}

	// Leave has no monetary dimension; thresholded levels never apply.
	s.submitForApproval(c, approval.EntityLeaveRequest, lr.ID, lr.ReferenceNo, memberID, tenantID, nil)
}

// CreatePurchaseRequest handles POST /requests/purchase.
func (s *Server) CreatePurchaseRequest(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	ctx := c.Request.Context()
	pr := &repository.PurchaseRequest{
		ID:          newEntityID(),
		TenantID:    tenantID,
		RequesterID: memberID,
		ReferenceNo: newReference("PR"),
		Title:       req.Title,
		Amount:      req.Amount,
		Currency:    currency,
	}
	if err := s.entities.CreatePurchaseRequest(ctx, pr); err != nil {
		logger.Error("create purchase request failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not create purchase request"})
		return
	}

	amount := req.Amount
	s.submitForApproval(c, approval.EntityPurchaseRequest, pr.ID, pr.ReferenceNo, memberID, tenantID, &amount)
}

// CreateAssetRequest handles POST /requests/asset.
func (s *Server) CreateAssetRequest(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	ar := &repository.AssetRequest{
		ID:          newEntityID(),
		TenantID:    tenantID,
		RequesterID: memberID,
		ReferenceNo: newReference("AS"),
		AssetName:   req.AssetName,
		Reason:      req.Reason,
	}
	if err := s.entities.CreateAssetRequest(ctx, ar); err != nil {
		logger.Error("create asset request failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not create asset request"})
		return
	}

	s.submitForApproval(c, approval.EntityAssetRequest, ar.ID, ar.ReferenceNo, memberID, tenantID, nil)
}

// CreatePayrollRun handles POST /payroll/runs. Admin-gated by the
// router: initiating payroll is itself a privileged action.
func (s *Server) CreatePayrollRun(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	var req createPayrollRun
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	run := &repository.PayrollRun{
		ID:          newEntityID(),
		TenantID:    tenantID,
		InitiatedBy: memberID,
		ReferenceNo: newReference("PRL"),
		Period:      req.Period,
		TotalAmount: req.TotalAmount,
	}
	if err := s.entities.CreatePayrollRun(ctx, run); err != nil {
		logger.Error("create payroll run failed", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not create payroll run"})
		return
	}

	amount := req.TotalAmount
	s.submitForApproval(c, approval.EntityPayrollRun, run.ID, run.ReferenceNo, memberID, tenantID, &amount)
}

// submitForApproval routes a freshly created entity into the chain
// engine and writes the common submit response.
func (s *Server) submitForApproval(c *gin.Context, entityType approval.EntityType, entityID, referenceNo, memberID, tenantID string, amount *float64) {
	result, err := s.approvals.Submit(c.Request.Context(), approval.SubmitParams{
		TenantID:    tenantID,
		EntityType:  entityType,
		EntityID:    entityID,
		RequesterID: memberID,
		Amount:      amount,
	})
	if err != nil {
		logger.Error("chain submission failed",
			zap.String("tenant_id", tenantID),
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not initialize approval chain"})
		return
	}

	c.JSON(http.StatusCreated, submitResponse{
		ID:           entityID,
		ReferenceNo:  referenceNo,
		Status:       repository.EntityStatusPendingApproval,
		ChainCreated: result.ChainCreated,
		Fallback:     result.Fallback,
		Chain:        stepsToAPI(result.Chain),
	})
}

func newEntityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// newReference builds a short human-facing reference number.
func newReference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}
