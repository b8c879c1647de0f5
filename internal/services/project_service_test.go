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

type projectTestEnv struct {
	db         *gorm.DB
	service    *ProjectService
	catalogs   *CatalogService
	admin      *models.User
	supervisor *models.User
	analyst    *models.User
	outsider   *models.User
}

func setupProjectTestEnv(t *testing.T) projectTestEnv {
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

	for _, value := range []string{"Pendiente", "En Progreso", "Completado", "Bloqueado"} {
		require.NoError(t, db.Create(&models.Catalog{Name: models.CatalogStatus, Value: value, IsActive: true}).Error)
	}
	for _, value := range []string{"Alta", "Media", "Baja"} {
		require.NoError(t, db.Create(&models.Catalog{Name: models.CatalogPriority, Value: value, IsActive: true}).Error)
	}

	catalogService := NewCatalogService(repository.NewCatalogRepository(db))
	projectService := NewProjectService(repository.NewProjectRepository(db), catalogService)

	env := projectTestEnv{
		db:       db,
		service:  projectService,
		catalogs: catalogService,
	}
	env.admin = createTestUser(t, db, "admin", policy.RoleAdmin, true)
	env.supervisor = createTestUser(t, db, "supervisor", policy.RoleSupervisor, true)
	env.analyst = createTestUser(t, db, "analyst", policy.RoleAnalyst, true)
	env.outsider = createTestUser(t, db, "outsider", policy.RoleAnalyst, true)

	return env
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role policy.Role, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@qa.com",
		PasswordHash: "irrelevant",
		Role:         role,
		Active:       active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func (env projectTestEnv) createProject(t *testing.T, analystIDs ...uint64) *models.Project {
	t.Helper()

	project, err := env.service.Create(env.supervisor, CreateProjectInput{
		GSFCode:     "GSF-001",
		InvgateCode: "INV-001",
		Name:        "Core banking regression",
		AnalystIDs:  analystIDs,
	})
	require.NoError(t, err)
	return project
}

func (env projectTestEnv) logCount(t *testing.T, projectID uint64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, env.db.Model(&models.ChangeLog{}).Where("project_id = ?", projectID).Count(&count).Error)
	return count
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestProjectService_CreateRecordsCreationLog(t *testing.T) {
	env := setupProjectTestEnv(t)

	project := env.createProject(t, env.analyst.ID)
	require.Equal(t, "Pendiente", project.Status)
	require.Len(t, project.Analysts, 1)

	var logs []models.ChangeLog
	require.NoError(t, env.db.Where("project_id = ?", project.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "PROYECTO CREADO", logs[0].ChangedField)
	require.Equal(t, project.Name, logs[0].NewValue)
	require.Equal(t, env.supervisor.ID, logs[0].UserID)
}

func TestProjectService_CreateRequiresCodesAndName(t *testing.T) {
	env := setupProjectTestEnv(t)

	_, err := env.service.Create(env.supervisor, CreateProjectInput{
		GSFCode: "GSF-001",
		Name:    "Missing invgate",
	})
	require.ErrorIs(t, err, ErrRequiredProjectFields)
}

func TestProjectService_AnalystCannotCreate(t *testing.T) {
	env := setupProjectTestEnv(t)

	_, err := env.service.Create(env.analyst, CreateProjectInput{
		GSFCode:     "GSF-001",
		InvgateCode: "INV-001",
		Name:        "Should not exist",
	})
	require.ErrorIs(t, err, ErrProjectPermissionDenied)
}

func TestProjectService_CreateRejectsIneligibleAnalysts(t *testing.T) {
	env := setupProjectTestEnv(t)

	pending := createTestUser(t, env.db, "pending-analyst", policy.RoleAnalyst, false)

	_, err := env.service.Create(env.supervisor, CreateProjectInput{
		GSFCode:     "GSF-001",
		InvgateCode: "INV-001",
		Name:        "Bad assignment",
		AnalystIDs:  []uint64{pending.ID},
	})
	require.ErrorIs(t, err, ErrInvalidAnalysts)

	_, err = env.service.Create(env.supervisor, CreateProjectInput{
		GSFCode:     "GSF-001",
		InvgateCode: "INV-001",
		Name:        "Bad assignment",
		AnalystIDs:  []uint64{env.supervisor.ID},
	})
	require.ErrorIs(t, err, ErrInvalidAnalysts)
}

func TestProjectService_ProgressBounds(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)

	_, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{Progress: intPtr(-1)})
	require.ErrorIs(t, err, ErrProgressOutOfRange)

	_, _, err = env.service.Update(env.supervisor, project.ID, UpdateProjectInput{Progress: intPtr(101)})
	require.ErrorIs(t, err, ErrProgressOutOfRange)

	updated, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{Progress: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Progress)

	updated, _, err = env.service.Update(env.supervisor, project.ID, UpdateProjectInput{Progress: intPtr(100)})
	require.NoError(t, err)
	require.Equal(t, 100, updated.Progress)
}

func TestProjectService_ExecutedCannotExceedTests(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)

	updated, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		TestCases:     intPtr(10),
		ExecutedCases: intPtr(10),
	})
	require.NoError(t, err)
	require.Equal(t, 10, updated.ExecutedCases)

	_, _, err = env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		ExecutedCases: intPtr(11),
	})
	require.ErrorIs(t, err, ErrExecutedExceedsTests)

	_, _, err = env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		TestCases: intPtr(-1),
	})
	require.ErrorIs(t, err, ErrNegativeCases)
}

func TestProjectService_RejectedUpdateChangesNothing(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)
	logsBefore := env.logCount(t, project.ID)

	// The name is acceptable but the progress is not; the whole
	// update must be discarded.
	_, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Name:     strPtr("Renamed project"),
		Progress: intPtr(150),
	})
	require.ErrorIs(t, err, ErrProgressOutOfRange)

	var stored models.Project
	require.NoError(t, env.db.First(&stored, project.ID).Error)
	require.Equal(t, project.Name, stored.Name)
	require.Equal(t, project.Progress, stored.Progress)
	require.Equal(t, logsBefore, env.logCount(t, project.ID))
}

func TestProjectService_IdempotentUpdateWritesNoLogs(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)
	logsBefore := env.logCount(t, project.ID)

	_, changes, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Name:     strPtr(project.Name),
		Status:   strPtr(project.Status),
		Progress: intPtr(project.Progress),
	})
	require.NoError(t, err)
	require.Empty(t, changes)
	require.Equal(t, logsBefore, env.logCount(t, project.ID))
}

func TestProjectService_OneLogPerChangedField(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)
	logsBefore := env.logCount(t, project.ID)

	_, changes, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Status:   strPtr("En Progreso"),
		Progress: intPtr(25),
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Equal(t, logsBefore+2, env.logCount(t, project.ID))

	var logs []models.ChangeLog
	require.NoError(t, env.db.Where("project_id = ? AND changed_field = ?", project.ID, policy.FieldStatus).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "Pendiente", logs[0].OldValue)
	require.Equal(t, "En Progreso", logs[0].NewValue)
}

func TestProjectService_AnalystProgressUpdate(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	updated, changes, err := env.service.UpdateProgress(env.analyst, project.ID, UpdateProgressInput{
		Progress: intPtr(40),
		Status:   strPtr("En Progreso"),
	})
	require.NoError(t, err)
	require.Equal(t, 40, updated.Progress)
	require.Len(t, changes, 2)

	var logs []models.ChangeLog
	require.NoError(t, env.db.Where("project_id = ? AND user_id = ?", project.ID, env.analyst.ID).Find(&logs).Error)
	require.Len(t, logs, 2)
}

func TestProjectService_AnalystCannotTouchRestrictedFields(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	_, _, err := env.service.Update(env.analyst, project.ID, UpdateProjectInput{
		Name: strPtr("Renamed by analyst"),
	})
	require.ErrorIs(t, err, ErrFieldNotEditable)

	_, _, err = env.service.Update(env.analyst, project.ID, UpdateProjectInput{
		AnalystIDs:  []uint64{env.outsider.ID},
		SetAnalysts: true,
	})
	require.ErrorIs(t, err, ErrFieldNotEditable)
}

func TestProjectService_UnassignedAnalystDenied(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	_, _, err := env.service.Get(env.outsider, project.ID)
	require.ErrorIs(t, err, ErrProjectAccessDenied)

	_, _, err = env.service.Update(env.outsider, project.ID, UpdateProjectInput{
		Progress: intPtr(10),
	})
	require.ErrorIs(t, err, ErrProjectPermissionDenied)
}

func TestProjectService_SupervisorCannotEditOthersProject(t *testing.T) {
	env := setupProjectTestEnv(t)
	other := createTestUser(t, env.db, "other-supervisor", policy.RoleSupervisor, true)
	project := env.createProject(t)

	_, _, err := env.service.Update(other, project.ID, UpdateProjectInput{
		Progress: intPtr(10),
	})
	require.ErrorIs(t, err, ErrProjectPermissionDenied)

	err = env.service.Delete(other, project.ID)
	require.ErrorIs(t, err, ErrProjectDeleteDenied)

	// Admins edit anything.
	_, _, err = env.service.Update(env.admin, project.ID, UpdateProjectInput{
		Progress: intPtr(10),
	})
	require.NoError(t, err)
}

func TestProjectService_DeactivatedStatusRejectedOnChange(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)

	require.NoError(t, env.db.Model(&models.Catalog{}).
		Where("name = ? AND value = ?", models.CatalogStatus, "Bloqueado").
		Update("is_active", false).Error)

	_, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Status: strPtr("Bloqueado"),
	})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestProjectService_HeldDeactivatedStatusDoesNotBlockOtherEdits(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t)

	_, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Status: strPtr("Bloqueado"),
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.Catalog{}).
		Where("name = ? AND value = ?", models.CatalogStatus, "Bloqueado").
		Update("is_active", false).Error)

	// The stored status is untouched, so no catalog check fires.
	updated, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Progress: intPtr(50),
	})
	require.NoError(t, err)
	require.Equal(t, "Bloqueado", updated.Status)
	require.Equal(t, 50, updated.Progress)
}

func TestProjectService_ReplaceAnalysts(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	updated, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		AnalystIDs:  []uint64{env.outsider.ID},
		SetAnalysts: true,
	})
	require.NoError(t, err)
	require.Len(t, updated.Analysts, 1)
	require.Equal(t, env.outsider.ID, updated.Analysts[0].AnalystID)

	// The replaced analyst loses access.
	_, _, err = env.service.Get(env.analyst, project.ID)
	require.ErrorIs(t, err, ErrProjectAccessDenied)
}

func TestProjectService_ListByRole(t *testing.T) {
	env := setupProjectTestEnv(t)
	other := createTestUser(t, env.db, "other-supervisor", policy.RoleSupervisor, true)

	mine := env.createProject(t, env.analyst.ID)
	theirs, err := env.service.Create(other, CreateProjectInput{
		GSFCode:     "GSF-002",
		InvgateCode: "INV-002",
		Name:        "Payments regression",
	})
	require.NoError(t, err)

	all, total, err := env.service.List(env.admin, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	supervisorView, total, err := env.service.List(env.supervisor, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, mine.ID, supervisorView[0].ID)

	analystView, total, err := env.service.List(env.analyst, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, mine.ID, analystView[0].ID)

	_ = theirs
}

func TestProjectService_DeleteCascades(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	_, _, err := env.service.Update(env.supervisor, project.ID, UpdateProjectInput{
		Progress: intPtr(30),
	})
	require.NoError(t, err)

	_, err = env.service.AddEvidence(env.supervisor, project.ID, EvidenceInput{
		Filename: "report.pdf",
		FilePath: "/uploads/report.pdf",
		FileSize: 2048,
	})
	require.NoError(t, err)

	require.NoError(t, env.service.Delete(env.supervisor, project.ID))

	require.Zero(t, env.logCount(t, project.ID))
	var assignments int64
	require.NoError(t, env.db.Model(&models.ProjectAnalyst{}).Where("project_id = ?", project.ID).Count(&assignments).Error)
	require.Zero(t, assignments)
	var evidences int64
	require.NoError(t, env.db.Model(&models.Evidence{}).Where("project_id = ?", project.ID).Count(&evidences).Error)
	require.Zero(t, evidences)

	_, _, err = env.service.Get(env.supervisor, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_EvidenceAccess(t *testing.T) {
	env := setupProjectTestEnv(t)
	project := env.createProject(t, env.analyst.ID)

	evidence, err := env.service.AddEvidence(env.analyst, project.ID, EvidenceInput{
		Filename: "screenshot.png",
		FilePath: "/uploads/screenshot.png",
		FileSize: 512,
	})
	require.NoError(t, err)
	require.Equal(t, env.analyst.ID, evidence.UploadedByID)

	listed, err := env.service.ListEvidence(env.supervisor, project.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = env.service.ListEvidence(env.outsider, project.ID)
	require.ErrorIs(t, err, ErrProjectAccessDenied)
}
