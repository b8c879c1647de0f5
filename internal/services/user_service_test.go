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

func setupUserTestEnv(t *testing.T) (*gorm.DB, *UserService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, NewUserService(repository.NewUserRepository(db))
}

func TestUserService_ApproveActivatesAccount(t *testing.T) {
	db, service := setupUserTestEnv(t)
	admin := createTestUser(t, db, "admin", policy.RoleAdmin, true)
	pending := createTestUser(t, db, "pending", policy.RoleAnalyst, false)

	approved, err := service.Approve(admin.ID, pending.ID)
	require.NoError(t, err)
	require.True(t, approved.Active)

	var stored models.User
	require.NoError(t, db.First(&stored, pending.ID).Error)
	require.True(t, stored.Active)
}

func TestUserService_RejectRemovesAccount(t *testing.T) {
	db, service := setupUserTestEnv(t)
	admin := createTestUser(t, db, "admin", policy.RoleAdmin, true)
	pending := createTestUser(t, db, "pending", policy.RoleAnalyst, false)

	require.NoError(t, service.Reject(admin.ID, pending.ID))

	err := db.First(&models.User{}, pending.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserService_AdminCannotActOnSelf(t *testing.T) {
	db, service := setupUserTestEnv(t)
	admin := createTestUser(t, db, "admin", policy.RoleAdmin, true)

	_, err := service.Approve(admin.ID, admin.ID)
	require.ErrorIs(t, err, ErrCannotModifySelf)

	require.ErrorIs(t, service.Reject(admin.ID, admin.ID), ErrCannotModifySelf)
	require.ErrorIs(t, service.Delete(admin.ID, admin.ID), ErrCannotModifySelf)
}

func TestUserService_UpdateChecksUniqueness(t *testing.T) {
	db, service := setupUserTestEnv(t)
	createTestUser(t, db, "taken", policy.RoleAnalyst, true)
	user := createTestUser(t, db, "victim", policy.RoleAnalyst, true)

	_, err := service.Update(user.ID, UpdateUserInput{Username: strPtr("taken")})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = service.Update(user.ID, UpdateUserInput{Email: strPtr("taken@qa.com")})
	require.ErrorIs(t, err, ErrEmailTaken)

	role := policy.Role("superuser")
	_, err = service.Update(user.ID, UpdateUserInput{Role: &role})
	require.ErrorIs(t, err, ErrInvalidRole)

	supervisor := policy.RoleSupervisor
	updated, err := service.Update(user.ID, UpdateUserInput{
		Username: strPtr("renamed"),
		Role:     &supervisor,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Username)
	require.Equal(t, policy.RoleSupervisor, updated.Role)
}

func TestUserService_ResetPassword(t *testing.T) {
	db, service := setupUserTestEnv(t)
	user := createTestUser(t, db, "user", policy.RoleAnalyst, true)

	require.ErrorIs(t, service.ResetPassword(user.ID, "newpass1", "different"), ErrPasswordMismatch)
	require.ErrorIs(t, service.ResetPassword(user.ID, "short", "short"), ErrPasswordTooShort)
	require.NoError(t, service.ResetPassword(user.ID, "newpass1", "newpass1"))

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotEqual(t, user.PasswordHash, stored.PasswordHash)
}

func TestUserService_Stats(t *testing.T) {
	db, service := setupUserTestEnv(t)
	createTestUser(t, db, "admin", policy.RoleAdmin, true)
	createTestUser(t, db, "active-analyst", policy.RoleAnalyst, true)
	createTestUser(t, db, "pending-one", policy.RoleAnalyst, false)
	createTestUser(t, db, "pending-two", policy.RoleSupervisor, false)

	stats, err := service.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 4, stats.TotalUsers)
	require.EqualValues(t, 2, stats.PendingUsers)
	require.EqualValues(t, 2, stats.ActiveUsers)
	require.Len(t, stats.Pending, 2)
}
