package models

import "time"

type ProjectAnalyst struct {
	ProjectID  uint64    `gorm:"primarykey" json:"project_id"`
	AnalystID  uint64    `gorm:"primarykey" json:"analyst_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Analyst User    `gorm:"foreignKey:AnalystID" json:"analyst,omitempty"`
}
