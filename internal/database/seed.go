package database

import (
	"errors"
	"fmt"

	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultCatalogs = map[string][]string{
	models.CatalogPriority: {"Regulatorio", "Crítico", "Alta", "Media", "Baja"},
	models.CatalogStatus:   {"Pendiente", "En Progreso", "En Revisión", "Completado", "Bloqueado"},
}

// Seed creates the default admin account and catalog values if missing.
func Seed(log *zap.SugaredLogger) error {
	var admin models.User
	err := DB.Where("username = ?", "admin").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed admin password: %w", err)
		}
		admin = models.User{
			Username:     "admin",
			Email:        "admin@qa.com",
			PasswordHash: string(hash),
			Role:         policy.RoleAdmin,
			Active:       true,
		}
		if err := DB.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create seed admin: %w", err)
		}
		log.Infow("seed admin user created", "username", admin.Username)
	} else if err != nil {
		return fmt.Errorf("failed to check seed admin: %w", err)
	}

	for name, values := range defaultCatalogs {
		for _, value := range values {
			var existing models.Catalog
			err := DB.Where("name = ? AND value = ?", name, value).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				entry := models.Catalog{Name: name, Value: value, IsActive: true}
				if err := DB.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to seed catalog %s/%s: %w", name, value, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to check catalog %s/%s: %w", name, value, err)
			}
		}
	}

	log.Info("default catalogs seeded")
	return nil
}
