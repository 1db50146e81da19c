// Package notification implements chain event fan-out.
//
// In-app inbox writes happen inline after the approval transaction
// commits; external channels (email, WhatsApp) ride the job queue so a
// slow SMTP server never blocks an approval response. Every channel is
// independently best-effort: a delivery failure is logged, never
// propagated back into chain processing.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/pkg/logger"
	"opsledger.io/opsledger/internal/repository"
)

// Notification type constants stored on inbox rows.
const (
	TypeApprovalPending   = "APPROVAL_PENDING"
	TypeApprovalCompleted = "APPROVAL_COMPLETED"
	TypeApprovalRejected  = "APPROVAL_REJECTED"
	TypeApprovalUnrouted  = "APPROVAL_UNROUTED"
)

// Params holds the required fields for creating a notification.
type Params struct {
	TenantID    string
	RecipientID string
	Type        string // one of Type* constants above
	Title       string
	Message     string
	Link        string // in-app navigation target
	EntityType  string
	EntityID    string
}

// Sender delivers notifications to a single channel.
type Sender interface {
	// Send creates a notification for a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany creates notifications for multiple recipients in one
	// write.
	SendToMany(ctx context.Context, recipientIDs []string, params Params) error
}

// InboxStore is the persistence surface InboxSender needs.
type InboxStore interface {
	InsertMany(ctx context.Context, notifications []repository.Notification) error
}

// InboxSender writes in-app inbox rows synchronously within the
// caller's context.
type InboxSender struct {
	store InboxStore
}

// NewInboxSender creates a new inbox sender.
func NewInboxSender(store InboxStore) *InboxSender {
	return &InboxSender{store: store}
}

// Send stores a single notification.
func (s *InboxSender) Send(ctx context.Context, params Params) error {
	return s.SendToMany(ctx, []string{params.RecipientID}, params)
}

// SendToMany stores notifications for multiple recipients in one batch.
func (s *InboxSender) SendToMany(ctx context.Context, recipientIDs []string, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}
	if len(recipientIDs) == 0 {
		return nil
	}

	rows := make([]repository.Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		rows = append(rows, repository.Notification{
			ID:          uuid.NewString(),
			TenantID:    params.TenantID,
			RecipientID: recipientID,
			Type:        params.Type,
			Title:       params.Title,
			Message:     params.Message,
			Link:        params.Link,
			EntityType:  params.EntityType,
			EntityID:    params.EntityID,
		})
	}

	if err := s.store.InsertMany(ctx, rows); err != nil {
		return fmt.Errorf("write inbox notifications: %w", err)
	}

	logger.Debug("inbox notifications written",
		zap.String("type", params.Type),
		zap.Int("recipients", len(recipientIDs)),
	)
	return nil
}

func validateParams(params Params) error {
	switch {
	case params.TenantID == "":
		return fmt.Errorf("tenant_id is required")
	case params.Type == "":
		return fmt.Errorf("type is required")
	case params.Title == "":
		return fmt.Errorf("title is required")
	default:
		return nil
	}
}
