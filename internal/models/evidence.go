package models

import "time"

// Evidence holds file metadata attached to a project. Upload handling
// itself lives outside this service; only the storage path is tracked.
type Evidence struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Filename     string    `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"file_path"`
	FileSize     int64     `json:"file_size"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	ProjectID    uint64    `gorm:"not null;index" json:"project_id"`
	UploadedByID uint64    `gorm:"not null" json:"uploaded_by_id"`

	// Relations
	Uploader User `gorm:"foreignKey:UploadedByID" json:"uploader,omitempty"`
}
