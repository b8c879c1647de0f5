package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/dto"
	apierrors "github.com/qa-tracker/qa-tracker/internal/errors"
	"github.com/qa-tracker/qa-tracker/internal/services"
)

// CatalogHandler coordinates catalog-management HTTP handlers.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// List returns the entries of one catalog category. Pass active=true
// to restrict to selectable values.
func (h *CatalogHandler) List(c *gin.Context) {
	name := c.Param("name")
	activeOnly := c.Query("active") == "true"

	entries, err := h.catalogService.List(name, activeOnly)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    name,
		"entries": dto.ToCatalogEntryDTOs(entries),
	})
}

// Create adds a value to a catalog category.
func (h *CatalogHandler) Create(c *gin.Context) {
	name := c.Param("name")

	type CreateCatalogRequest struct {
		Value string `json:"value" binding:"required"`
	}

	var req CreateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.catalogService.AddValue(name, req.Value)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCatalogEntryDTO(*entry))
}

// Toggle flips the active flag on a catalog entry. Deactivated values
// stay on existing projects but cannot be assigned anymore.
func (h *CatalogHandler) Toggle(c *gin.Context) {
	entryID, ok := parseCatalogID(c)
	if !ok {
		return
	}

	entry, err := h.catalogService.ToggleValue(entryID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCatalogEntryDTO(*entry))
}

// Delete removes a catalog entry unless a project references it.
func (h *CatalogHandler) Delete(c *gin.Context) {
	entryID, ok := parseCatalogID(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteValue(entryID); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Catalog entry deleted",
	})
}

func parseCatalogID(c *gin.Context) (uint64, bool) {
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid catalog entry ID")
		return 0, false
	}
	return entryID, true
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownCatalogCategory),
		errors.Is(err, services.ErrCatalogValueEmpty):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCatalogNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCatalogValueExists),
		errors.Is(err, services.ErrCatalogValueInUse):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
