package models

import "time"

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type Campaign struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Code        string         `gorm:"type:varchar(25);uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`
	ProjectID   uint64         `gorm:"not null;index" json:"project_id"`
	StartDate   time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time      `gorm:"type:date;not null" json:"end_date"`
	OverallInfo string         `gorm:"type:text" json:"overall_info"`
	Status      CampaignStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Plans   []Plan  `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"plans,omitempty"`
}
