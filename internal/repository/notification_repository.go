package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is one in-app inbox row.
type Notification struct {
	ID          string
	TenantID    string
	RecipientID string
	Type        string
	Title       string
	Message     string
	Link        string
	EntityType  string
	EntityID    string
	Read        bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// NotificationRepository persists the in-app inbox.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// InsertMany bulk-inserts inbox rows via pgx batching. One audience's
// notifications land together or not at all.
func (r *NotificationRepository) InsertMany(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(`
			INSERT INTO notifications
				(id, tenant_id, recipient_id, type, title, message, link, entity_type, entity_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			n.ID, n.TenantID, n.RecipientID, n.Type, n.Title, n.Message, n.Link, n.EntityType, n.EntityID,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert notification batch: %w", err)
		}
	}
	return nil
}

// ListByRecipient returns the recipient's inbox, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, tenantID, recipientID string, limit, offset int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, recipient_id, type, title, message, link,
		       entity_type, entity_id, read, read_at, created_at
		FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		tenantID, recipientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.TenantID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.Link,
			&n.EntityType, &n.EntityID, &n.Read, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns the recipient's unread notification count.
func (r *NotificationRepository) UnreadCount(ctx context.Context, tenantID, recipientID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2 AND NOT read`,
		tenantID, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read. Only the recipient can mark
// their own rows; a mismatched id affects zero rows and reports false.
func (r *NotificationRepository) MarkRead(ctx context.Context, tenantID, recipientID, notificationID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = NOW()
		WHERE tenant_id = $1 AND recipient_id = $2 AND id = $3 AND NOT read`,
		tenantID, recipientID, notificationID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOlderThan removes inbox rows created before the cutoff and
// returns the number deleted. Retention cleanup job entry point.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
