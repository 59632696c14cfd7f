package models

import "time"

// CodeCounter is the per-namespace arena row that serializes code issuing.
// Namespaces look like "project:25", "campaign:<project id>" and "plan:<campaign id>".
type CodeCounter struct {
	Namespace string `gorm:"type:varchar(64);primarykey"`
	LastCode  string `gorm:"type:varchar(32);not null;default:''"`
	Sequence  int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
