package dto

import (
	"time"

	"github.com/noah-isme/socium-go/internal/models"
)

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// RegisterRequest creates a new account pending email verification.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

// VerifyEmailRequest confirms a pending registration. Email defaults to the pending address.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
	Code  string `json:"code" validate:"required,len=6"`
}

// ResetPasswordRequest asks for a reset code, or applies a new password when Code is present.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Code        string `json:"code" validate:"omitempty,len=6"`
	NewPassword string `json:"new_password" validate:"required_with=Code,omitempty,min=6,max=128"`
}

// SessionResponse is the serialized session state.
type SessionResponse struct {
	Status              models.SessionStatus `json:"status"`
	User                *UserResponse        `json:"user,omitempty"`
	PendingVerification bool                 `json:"pending_verification"`
	PendingEmail        string               `json:"pending_email,omitempty"`
	ExpiresAt           *time.Time           `json:"expires_at,omitempty"`
	LastError           string               `json:"last_error,omitempty"`
}

// UserResponse is the serialized current user.
type UserResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// NewUserResponse converts a user into its DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		DisplayName: user.DisplayName(),
		Username:    user.Username(),
	}
}

// NewSessionResponse converts a session snapshot into its DTO.
func NewSessionResponse(session models.Session) SessionResponse {
	response := SessionResponse{
		Status:              session.Status,
		PendingVerification: session.PendingVerification,
		PendingEmail:        session.PendingEmail,
		ExpiresAt:           session.ExpiresAt,
		LastError:           session.LastError,
	}
	if session.User != nil {
		user := NewUserResponse(*session.User)
		response.User = &user
	}
	return response
}
