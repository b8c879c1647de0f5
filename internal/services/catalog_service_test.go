package services

import (
	"testing"

	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestEnv(t *testing.T) (*gorm.DB, *CatalogService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectAnalyst{},
		&models.ChangeLog{},
		&models.Catalog{},
		&models.Evidence{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, NewCatalogService(repository.NewCatalogRepository(db))
}

func TestCatalogService_AddAndList(t *testing.T) {
	db, service := setupCatalogTestEnv(t)

	entry, err := service.AddValue(models.CatalogPriority, "Alta")
	require.NoError(t, err)
	require.True(t, entry.IsActive)

	_, err = service.AddValue(models.CatalogPriority, "Alta")
	require.ErrorIs(t, err, ErrCatalogValueExists)

	_, err = service.AddValue(models.CatalogPriority, "   ")
	require.ErrorIs(t, err, ErrCatalogValueEmpty)

	_, err = service.AddValue("flavor", "Vanilla")
	require.ErrorIs(t, err, ErrUnknownCatalogCategory)

	entries, err := service.List(models.CatalogPriority, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var stored models.Catalog
	require.NoError(t, db.First(&stored, entry.ID).Error)
	require.Equal(t, "Alta", stored.Value)
}

func TestCatalogService_ToggleHidesFromActiveList(t *testing.T) {
	_, service := setupCatalogTestEnv(t)

	entry, err := service.AddValue(models.CatalogStatus, "Bloqueado")
	require.NoError(t, err)

	toggled, err := service.ToggleValue(entry.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsActive)

	active, err := service.List(models.CatalogStatus, true)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := service.List(models.CatalogStatus, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCatalogService_DeleteGuardedByReferences(t *testing.T) {
	db, service := setupCatalogTestEnv(t)

	entry, err := service.AddValue(models.CatalogPriority, "Alta")
	require.NoError(t, err)

	supervisor := createTestUser(t, db, "cat-supervisor", policy.RoleSupervisor, true)
	priority := "Alta"
	require.NoError(t, db.Create(&models.Project{
		GSFCode:     "GSF-100",
		InvgateCode: "INV-100",
		Name:        "Referencing project",
		Priority:    &priority,
		Status:      "Pendiente",
		CreatedByID: supervisor.ID,
	}).Error)

	err = service.DeleteValue(entry.ID)
	require.ErrorIs(t, err, ErrCatalogValueInUse)

	// Still present after the rejected delete.
	entries, err := service.List(models.CatalogPriority, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, db.Model(&models.Project{}).Where("gsf_code = ?", "GSF-100").Update("priority", nil).Error)
	require.NoError(t, service.DeleteValue(entry.ID))

	entries, err = service.List(models.CatalogPriority, false)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCatalogService_Validators(t *testing.T) {
	_, service := setupCatalogTestEnv(t)

	_, err := service.AddValue(models.CatalogStatus, "Pendiente")
	require.NoError(t, err)
	_, err = service.AddValue(models.CatalogPriority, "Media")
	require.NoError(t, err)

	require.NoError(t, service.ValidateStatus("Pendiente"))
	require.ErrorIs(t, service.ValidateStatus("Inventado"), ErrInvalidStatus)

	require.NoError(t, service.ValidatePriority(nil))
	media := "Media"
	require.NoError(t, service.ValidatePriority(&media))
	bogus := "Inexistente"
	require.ErrorIs(t, service.ValidatePriority(&bogus), ErrInvalidPriority)
}
