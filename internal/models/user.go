package models

import (
	"strings"
	"time"
)

// User is the local copy of an agency CRM identity. Rows are never deleted;
// deactivation clears IsActive and leaves owned projects in place.
type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	AgencyCRMID  *int64    `gorm:"uniqueIndex" json:"agency_crm_id"`
	FirstName    string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(100)" json:"last_name"`
	PasswordHash *string   `gorm:"type:varchar(255)" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Projects []Project `gorm:"foreignKey:OwnerID" json:"-"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) HasLocalCredential() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
