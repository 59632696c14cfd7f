package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlanStatus string

const (
	PlanStatusDraft    PlanStatus = "draft"
	PlanStatusApproved PlanStatus = "approved"
)

type Plan struct {
	ID          uint64              `gorm:"primarykey" json:"id"`
	Name        string              `gorm:"type:varchar(200);not null;index:idx_plans_campaign_name,priority:2" json:"name"`
	CampaignID  uint64              `gorm:"not null;index:idx_plans_campaign_name,priority:1" json:"campaign_id"`
	Description string              `gorm:"type:text" json:"description"`
	Budget      decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"budget"`
	Status      PlanStatus          `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Relations
	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
}
