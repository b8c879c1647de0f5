package models

import "time"

// ChangeLog is an append-only audit record of a single field change.
// Rows are never updated or deleted except when the owning project is removed.
type ChangeLog struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	ProjectID    uint64    `gorm:"not null;index" json:"project_id"`
	UserID       uint64    `gorm:"not null" json:"user_id"`
	ChangedField string    `gorm:"type:varchar(100);not null" json:"changed_field"`
	OldValue     string    `gorm:"type:text" json:"old_value"`
	NewValue     string    `gorm:"type:text" json:"new_value"`
	ChangedAt    time.Time `gorm:"autoCreateTime" json:"changed_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
