package dto

import (
	"time"

	"github.com/yukikurage/projects-crm/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	AgencyCRMID *int64    `json:"agency_crm_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginRequest carries agency CRM credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// IdentityPayload is a user record pushed by the agency CRM. Absent fields
// stay nil and are left untouched locally.
type IdentityPayload struct {
	ID        *int64  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

// ReconcileResponse reports the outcome of a webhook or sync call
type ReconcileResponse struct {
	Message string   `json:"message"`
	Outcome string   `json:"outcome,omitempty"`
	User    *UserDTO `json:"user,omitempty"`
}

// SyncUsersResponse summarizes a pull reconciliation
type SyncUsersResponse struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		AgencyCRMID: user.AgencyCRMID,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}
