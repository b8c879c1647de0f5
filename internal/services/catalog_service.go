package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUnknownCatalogCategory = errors.New("unknown catalog category")
	ErrCatalogValueEmpty      = errors.New("catalog value cannot be empty")
	ErrCatalogValueExists     = errors.New("value already exists in this catalog")
	ErrCatalogNotFound        = errors.New("catalog entry not found")
	ErrCatalogValueInUse      = errors.New("catalog value is in use by existing projects")
	ErrInvalidStatus          = errors.New("status is not an active catalog value")
	ErrInvalidPriority        = errors.New("priority is not an active catalog value")
)

// CatalogService manages the mutable value lists and validates project
// fields against them.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo repository.CatalogRepository) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
	}
}

// knownCategory reports whether name is one of the closed category set.
func knownCategory(name string) bool {
	return name == models.CatalogPriority || name == models.CatalogStatus
}

// List returns the entries of a catalog category.
func (s *CatalogService) List(name string, activeOnly bool) ([]models.Catalog, error) {
	if !knownCategory(name) {
		return nil, ErrUnknownCatalogCategory
	}
	entries, err := s.catalogRepo.List(name, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog %s: %w", name, err)
	}
	return entries, nil
}

// AddValue creates a new active catalog entry.
func (s *CatalogService) AddValue(name, value string) (*models.Catalog, error) {
	if !knownCategory(name) {
		return nil, ErrUnknownCatalogCategory
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrCatalogValueEmpty
	}

	if _, err := s.catalogRepo.FindByNameValue(name, value); err == nil {
		return nil, ErrCatalogValueExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check catalog value: %w", err)
	}

	entry := &models.Catalog{
		Name:     name,
		Value:    value,
		IsActive: true,
	}
	if err := s.catalogRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to create catalog entry: %w", err)
	}

	return entry, nil
}

// ToggleValue flips an entry's activation. Deactivation never touches
// projects already holding the value; it only blocks new writes.
func (s *CatalogService) ToggleValue(id uint64) (*models.Catalog, error) {
	entry, err := s.findEntry(id)
	if err != nil {
		return nil, err
	}

	entry.IsActive = !entry.IsActive
	if err := s.catalogRepo.Save(entry); err != nil {
		return nil, fmt.Errorf("failed to toggle catalog entry: %w", err)
	}

	return entry, nil
}

// DeleteValue removes an entry unless any project still holds its value.
func (s *CatalogService) DeleteValue(id uint64) error {
	entry, err := s.findEntry(id)
	if err != nil {
		return err
	}

	if err := s.catalogRepo.DeleteIfUnreferenced(entry); err != nil {
		if errors.Is(err, repository.ErrCatalogInUse) {
			return ErrCatalogValueInUse
		}
		return fmt.Errorf("failed to delete catalog entry: %w", err)
	}

	return nil
}

// ValidateStatus checks a proposed status against the active status
// catalog. Queried fresh on every write.
func (s *CatalogService) ValidateStatus(value string) error {
	ok, err := s.catalogRepo.ExistsActive(models.CatalogStatus, value)
	if err != nil {
		return fmt.Errorf("failed to validate status: %w", err)
	}
	if !ok {
		return ErrInvalidStatus
	}
	return nil
}

// ValidatePriority checks a proposed priority against the active
// priority catalog. nil is permitted: priority is optional.
func (s *CatalogService) ValidatePriority(value *string) error {
	if value == nil {
		return nil
	}
	ok, err := s.catalogRepo.ExistsActive(models.CatalogPriority, *value)
	if err != nil {
		return fmt.Errorf("failed to validate priority: %w", err)
	}
	if !ok {
		return ErrInvalidPriority
	}
	return nil
}

func (s *CatalogService) findEntry(id uint64) (*models.Catalog, error) {
	entry, err := s.catalogRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to find catalog entry: %w", err)
	}
	return entry, nil
}
