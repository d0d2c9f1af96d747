package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a credential row as the auth layer sees it, whichever table it
// was loaded from.
type Account struct {
	ID            uuid.UUID
	Role          Role
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	InstitutionID *uuid.UUID
	IsActive      bool
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Principal is the resolved caller of one request. It is built by the auth
// service from a verified token and the account row and is never persisted.
type Principal struct {
	ID            uuid.UUID    `json:"id"`
	Role          Role         `json:"role"`
	Permissions   []Permission `json:"permissions"`
	IsActive      bool         `json:"is_active"`
	InstitutionID *uuid.UUID   `json:"institution_id,omitempty"`
	Email         string       `json:"email"`
	Name          string       `json:"name"`

	TokenID   string    `json:"-"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// HasPermission reports whether p carries perm.
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// InInstitution reports whether p is scoped to the given institution.
func (p *Principal) InInstitution(id uuid.UUID) bool {
	return p != nil && p.InstitutionID != nil && *p.InstitutionID == id
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=72"`
}

// RefreshRequest is the payload for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest is the payload for POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=72"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72,nefield=CurrentPassword"`
}

// ForgotPasswordRequest is the payload for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ResetPasswordRequest is the payload for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}
