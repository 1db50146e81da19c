package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"opsledger.io/opsledger/internal/api/middleware"
	"opsledger.io/opsledger/internal/pkg/logger"
)

type loginRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	MemberID  string   `json:"member_id"`
	Name      string   `json:"name"`
	Roles     []string `json:"roles"`
	IsAdmin   bool     `json:"is_admin"`
}

// Login handles POST /auth/login. Failed lookups and bad passwords
// return the same response so the endpoint doesn't leak which emails
// exist.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	member, passwordHash, err := s.members.MemberByEmail(c.Request.Context(), req.TenantID, req.Email)
	if err != nil {
		logger.Error("login lookup failed", zap.String("tenant_id", req.TenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "login failed"})
		return
	}
	if member == nil || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid credentials"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, member.ID, req.TenantID, member.Name, member.Roles, member.IsAdmin)
	if err != nil {
		logger.Error("token generation failed", zap.String("member_id", member.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "login failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		MemberID:  member.ID,
		Name:      member.Name,
		Roles:     member.Roles,
		IsAdmin:   member.IsAdmin,
	})
}
