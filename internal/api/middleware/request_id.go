// Package middleware provides HTTP middleware for OpsLedger.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyMemberID  contextKey = "member_id"
	ctxKeyTenantID  contextKey = "tenant_id"
	ctxKeyName      contextKey = "member_name"
	ctxKeyRoles     contextKey = "roles"
)

// RequestID injects a unique request ID into the context and response
// header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetMemberContext stores authenticated member info in context.
func SetMemberContext(ctx context.Context, memberID, tenantID, name string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyMemberID, memberID)
	ctx = context.WithValue(ctx, ctxKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, ctxKeyName, name)
	ctx = context.WithValue(ctx, ctxKeyRoles, roles)
	return ctx
}

// GetMemberID extracts the member ID from context.
func GetMemberID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyMemberID).(string); ok {
		return v
	}
	return ""
}

// GetTenantID extracts the tenant ID from context.
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTenantID).(string); ok {
		return v
	}
	return ""
}
