package repository

import (
	"errors"
	"fmt"

	"github.com/qa-tracker/qa-tracker/internal/models"
	"gorm.io/gorm"
)

// ErrCatalogInUse is returned when a catalog entry cannot be deleted
// because a project still holds its value.
var ErrCatalogInUse = errors.New("catalog repository: value is referenced by existing projects")

// GormCatalogRepository is a GORM implementation of CatalogRepository
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

// List returns catalog entries for a category
func (r *GormCatalogRepository) List(name string, activeOnly bool) ([]models.Catalog, error) {
	var entries []models.Catalog
	query := r.db.Where("name = ?", name)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByID finds a catalog entry by ID
func (r *GormCatalogRepository) FindByID(id uint64) (*models.Catalog, error) {
	var entry models.Catalog
	if err := r.db.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByNameValue finds a catalog entry by category and value
func (r *GormCatalogRepository) FindByNameValue(name, value string) (*models.Catalog, error) {
	var entry models.Catalog
	if err := r.db.Where("name = ? AND value = ?", name, value).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create creates a catalog entry
func (r *GormCatalogRepository) Create(entry *models.Catalog) error {
	return r.db.Create(entry).Error
}

// Save persists changes to a catalog entry
func (r *GormCatalogRepository) Save(entry *models.Catalog) error {
	return r.db.Save(entry).Error
}

// DeleteIfUnreferenced removes a catalog entry unless a project still
// holds its value. The reference check runs inside the same transaction
// as the delete so a concurrent write cannot slip between them.
func (r *GormCatalogRepository) DeleteIfUnreferenced(entry *models.Catalog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var column string
		switch entry.Name {
		case models.CatalogPriority:
			column = "priority"
		case models.CatalogStatus:
			column = "status"
		default:
			return fmt.Errorf("unknown catalog category %q", entry.Name)
		}

		var count int64
		if err := tx.Model(&models.Project{}).
			Where(column+" = ?", entry.Value).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCatalogInUse
		}

		return tx.Delete(&models.Catalog{}, entry.ID).Error
	})
}

// ExistsActive reports whether an active entry with the given category
// and value exists. Queried on every write; catalog membership is
// mutable so results are never cached.
func (r *GormCatalogRepository) ExistsActive(name, value string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Catalog{}).
		Where("name = ? AND value = ? AND is_active = ?", name, value, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
