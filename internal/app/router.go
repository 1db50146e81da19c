package app

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"opsledger.io/opsledger/internal/api/handlers"
	"opsledger.io/opsledger/internal/api/middleware"
)

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/health/",
}

func newRouter(server *handlers.Server, signingKey []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.Default())
	router.Use(jwtSkipPublic(signingKey))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health/live", server.GetLiveness)
		v1.GET("/health/ready", server.GetReadiness)
		v1.POST("/auth/login", server.Login)

		v1.POST("/requests/leave", server.CreateLeaveRequest)
		v1.POST("/requests/purchase", server.CreatePurchaseRequest)
		v1.POST("/requests/asset", server.CreateAssetRequest)

		v1.GET("/approvals/pending", server.ListMyPending)
		v1.GET("/approvals/:entity_type/:entity_id", server.GetChain)
		v1.GET("/approvals/:entity_type/:entity_id/audit", server.GetChainAudit)
		v1.POST("/approvals/:entity_type/:entity_id/approve", server.ApproveStep)
		v1.POST("/approvals/:entity_type/:entity_id/reject", server.RejectStep)

		v1.GET("/notifications", server.ListNotifications)
		v1.POST("/notifications/:id/read", server.MarkNotificationRead)

		admin := v1.Group("", middleware.RequireAdmin())
		{
			admin.POST("/payroll/runs", server.CreatePayrollRun)
			admin.POST("/admin/policies", server.CreatePolicy)
			admin.GET("/admin/policies/:entity_type", server.GetActivePolicy)
		}
	}

	return router
}

// jwtSkipPublic applies JWT auth only on non-public routes.
func jwtSkipPublic(signingKey []byte) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(signingKey)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}
