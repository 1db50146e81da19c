package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/pkg/logger"
)

// ListNotifications handles GET /notifications: the caller's inbox,
// newest first, with the unread count.
func (s *Server) ListNotifications(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)

	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	page, perPage = defaultPagination(page, perPage)

	ctx := c.Request.Context()
	items, err := s.notifications.ListByRecipient(ctx, tenantID, memberID, perPage, (page-1)*perPage)
	if err != nil {
		logger.Error("inbox listing failed", zap.String("member_id", memberID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "inbox unavailable"})
		return
	}

	unread, err := s.notifications.UnreadCount(ctx, tenantID, memberID)
	if err != nil {
		logger.Error("unread count failed", zap.String("member_id", memberID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "inbox unavailable"})
		return
	}

	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationToAPI(n))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        out,
		"unread_count": unread,
		"page":         page,
		"per_page":     perPage,
	})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	memberID, tenantID := callerIdentity(c)
	notificationID := c.Param("id")

	marked, err := s.notifications.MarkRead(c.Request.Context(), tenantID, memberID, notificationID)
	if err != nil {
		logger.Error("mark read failed", zap.String("notification_id", notificationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "could not mark notification read"})
		return
	}
	if !marked {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOTIFICATION_NOT_FOUND", "message": "notification not found or already read"})
		return
	}

	c.Status(http.StatusNoContent)
}
