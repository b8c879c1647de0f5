package dto

import "github.com/qa-tracker/qa-tracker/internal/models"

// CatalogEntryDTO represents a catalog value in API responses
type CatalogEntryDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	IsActive bool   `json:"is_active"`
}

// ToCatalogEntryDTO converts a Catalog model to CatalogEntryDTO
func ToCatalogEntryDTO(entry models.Catalog) CatalogEntryDTO {
	return CatalogEntryDTO{
		ID:       entry.ID,
		Name:     entry.Name,
		Value:    entry.Value,
		IsActive: entry.IsActive,
	}
}

// ToCatalogEntryDTOs converts a slice of catalog entries
func ToCatalogEntryDTOs(entries []models.Catalog) []CatalogEntryDTO {
	items := make([]CatalogEntryDTO, len(entries))
	for i, entry := range entries {
		items[i] = ToCatalogEntryDTO(entry)
	}
	return items
}
