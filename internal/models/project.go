package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

type Project struct {
	ID              uint64        `gorm:"primarykey" json:"id"`
	Code            string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name            string        `gorm:"type:varchar(200);not null" json:"name"`
	ClientBrandID   int64         `gorm:"not null" json:"client_brand_id"`
	ClientBrandName string        `gorm:"type:varchar(200)" json:"client_brand_name"`
	StartDate       time.Time     `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time     `gorm:"type:date;not null" json:"end_date"`
	Comments        string        `gorm:"type:text" json:"comments"`
	OverallInfo     string        `gorm:"type:text" json:"overall_info"`
	Status          ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	OwnerID         uint64        `gorm:"not null;index" json:"owner_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Relations
	Owner     User       `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"owner,omitempty"`
	Campaigns []Campaign `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"campaigns,omitempty"`
}

// Covers reports whether [start, end] lies inside the project's date range.
func (p Project) Covers(start, end time.Time) bool {
	return !start.Before(p.StartDate) && !end.After(p.EndDate)
}
