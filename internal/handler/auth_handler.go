package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password for any role and returns an access/refresh pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindOrFail(c, &req) {
		return
	}

	acct, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	tokens, err := h.authService.IssueSession(acct)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokens,
		"user": gin.H{
			"id":             acct.ID,
			"role":           acct.Role,
			"email":          acct.Email,
			"name":           acct.FullName(),
			"institution_id": acct.InstitutionID,
			"permissions":    h.authService.Permissions(acct.Role),
		},
	})
}

// Refresh godoc
// POST /api/v1/auth/refresh
// Exchanges a refresh token for a new pair. The old refresh token stops working.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if !bindOrFail(c, &req) {
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the access token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), p); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the resolved principal with its effective permissions.
func (h *AuthHandler) Me(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": p})
}

// ChangePassword godoc
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p := principal(c)
	if p == nil {
		return
	}

	var req model.ChangePasswordRequest
	if !bindOrFail(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
// Always answers 202 so the response does not reveal whether the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !bindOrFail(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
	}
	response.Success(c, http.StatusAccepted, gin.H{})
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password
// Consumes a single-use reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !bindOrFail(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
