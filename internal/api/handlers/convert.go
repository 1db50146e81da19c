package handlers

import (
	"strings"
	"time"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
)

// StepResponse is the wire form of one approval step.
type StepResponse struct {
	ID           string  `json:"id"`
	EntityType   string  `json:"entity_type"`
	EntityID     string  `json:"entity_id"`
	LevelOrder   int     `json:"level_order"`
	RequiredRole string  `json:"required_role"`
	Status       string  `json:"status"`
	ApproverID   *string `json:"approver_id,omitempty"`
	ActionAt     *string `json:"action_at,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func stepToAPI(s approval.Step) StepResponse {
	resp := StepResponse{
		ID:           s.ID,
		EntityType:   string(s.EntityType),
		EntityID:     s.EntityID,
		LevelOrder:   s.LevelOrder,
		RequiredRole: s.RequiredRole,
		Status:       string(s.Status),
		ApproverID:   s.ApproverID,
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
	if s.ActionAt != nil {
		at := s.ActionAt.Format(time.RFC3339)
		resp.ActionAt = &at
	}
	return resp
}

func stepsToAPI(steps []approval.Step) []StepResponse {
	out := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepToAPI(s))
	}
	return out
}

// NotificationResponse is the wire form of one inbox row.
type NotificationResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Link       string `json:"link,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
}

func notificationToAPI(n repository.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Link:       n.Link,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
}

// AuditResponse is the wire form of one audit trail row.
type AuditResponse struct {
	LevelOrder int    `json:"level_order"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func auditToAPI(records []repository.AuditRecord) []AuditResponse {
	out := make([]AuditResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, AuditResponse{
			LevelOrder: rec.LevelOrder,
			Action:     rec.Action,
			ActorID:    rec.ActorID,
			Notes:      rec.Notes,
			CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// parseEntityType maps a lower-case path segment onto an entity type.
func parseEntityType(segment string) (approval.EntityType, bool) {
	t := approval.EntityType(strings.ToUpper(segment))
	return t, approval.ValidEntityType(t)
}

func defaultPagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
