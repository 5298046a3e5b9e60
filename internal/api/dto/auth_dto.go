package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest payload for staff login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ClientLoginRequest payload for client portal login.
type ClientLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is shared by staff and client accounts.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// StaffUser is the public view of a staff account.
type StaffUser struct {
	Username string              `json:"username"`
	Division domain.Division     `json:"division"`
	Role     domain.InternalRole `json:"role"`
}

// ClientUser is the public view of a client account; the hash never leaves the service.
type ClientUser struct {
	ID          int64             `json:"id"`
	Email       string            `json:"email"`
	Role        domain.ClientRole `json:"role"`
	ClientID    int64             `json:"client_id"`
	CompanyName string            `json:"company_name"`
}

// LoginResponse is returned by both login endpoints.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      any       `json:"user"`
}

// NewStaffUser maps a staff account.
func NewStaffUser(u *domain.User) StaffUser {
	return StaffUser{Username: u.Username, Division: u.Division, Role: u.Role}
}

// NewClientUser maps a client account.
func NewClientUser(u *domain.ClientUser) ClientUser {
	return ClientUser{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		ClientID:    u.ClientID,
		CompanyName: u.CompanyName,
	}
}
