package models

import "time"

// Catalog category names. The set is closed in the current scope.
const (
	CatalogPriority = "priority"
	CatalogStatus   = "status"
)

type Catalog struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null;index" json:"name"`
	Value     string    `gorm:"type:varchar(100);not null" json:"value"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
