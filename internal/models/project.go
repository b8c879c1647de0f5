package models

import (
	"time"
)

type Project struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	GSFCode        string     `gorm:"column:gsf_code;type:varchar(50);not null" json:"gsf_code"`
	InvgateCode    string     `gorm:"type:varchar(50);not null" json:"invgate_code"`
	Name           string     `gorm:"type:varchar(200);not null" json:"name"`
	Priority       *string    `gorm:"type:varchar(20)" json:"priority"`
	EstimatedHours *int       `json:"estimated_hours"`
	StartDate      *time.Time `gorm:"type:date" json:"start_date"`
	EndDate        *time.Time `gorm:"type:date" json:"end_date"`
	Status         string     `gorm:"type:varchar(50);not null" json:"status"`
	Progress       int        `gorm:"not null;default:0" json:"progress"`
	TestCases      int        `gorm:"not null;default:0" json:"test_cases"`
	ExecutedCases  int        `gorm:"not null;default:0" json:"executed_cases"`
	Observation    string     `gorm:"type:text" json:"observation"`
	CreatedByID    uint64     `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Creator   User             `gorm:"foreignKey:CreatedByID" json:"creator,omitempty"`
	Analysts  []ProjectAnalyst `gorm:"foreignKey:ProjectID" json:"analysts,omitempty"`
	Evidences []Evidence       `gorm:"foreignKey:ProjectID" json:"evidences,omitempty"`
	Logs      []ChangeLog      `gorm:"foreignKey:ProjectID" json:"logs,omitempty"`
}
