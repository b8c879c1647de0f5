package models

import (
	"time"

	"github.com/qa-tracker/qa-tracker/internal/policy"
)

type User struct {
	ID           uint64      `gorm:"primarykey" json:"id"`
	Username     string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"type:varchar(256);not null" json:"-"`
	Role         policy.Role `gorm:"type:varchar(20);not null" json:"role"`
	Active       bool        `gorm:"not null;default:false" json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Relations
	CreatedProjects []Project        `gorm:"foreignKey:CreatedByID" json:"-"`
	Assignments     []ProjectAnalyst `gorm:"foreignKey:AnalystID" json:"-"`
}
