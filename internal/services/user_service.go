package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qa-tracker/qa-tracker/internal/constants"
	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrCannotModifySelf = errors.New("administrators cannot apply this action to their own account")
)

// UserService handles the admin-only user lifecycle: approval, edits,
// password resets, and removal.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers returns all users, newest first.
func (s *UserService) ListUsers() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Approve activates a pending account. Admins cannot approve themselves.
func (s *UserService) Approve(actorID, userID uint64) (*models.User, error) {
	if actorID == userID {
		return nil, ErrCannotModifySelf
	}

	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	user.Active = true
	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	return user, nil
}

// Reject removes a pending account.
func (s *UserService) Reject(actorID, userID uint64) error {
	if actorID == userID {
		return ErrCannotModifySelf
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to reject user: %w", err)
	}

	return nil
}

// UpdateUserInput represents admin edits to an account.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Role     *policy.Role
	Active   *bool
}

// Update applies admin edits to a user.
func (s *UserService) Update(userID uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, fmt.Errorf("username cannot be empty")
		}
		if username != user.Username {
			if _, err := s.userRepo.FindByUsername(username); err == nil {
				return nil, ErrUsernameTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
		}
		user.Username = username
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, fmt.Errorf("email cannot be empty")
		}
		if email != user.Email {
			if _, err := s.userRepo.FindByEmail(email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ResetPassword sets a new password on an account.
func (s *UserService) ResetPassword(userID uint64, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Save(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(actorID, userID uint64) error {
	if actorID == userID {
		return ErrCannotModifySelf
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// AdminStats summarizes the admin dashboard counters.
type AdminStats struct {
	TotalUsers   int64         `json:"total_users"`
	PendingUsers int64         `json:"pending_users"`
	ActiveUsers  int64         `json:"active_users"`
	Pending      []models.User `json:"pending"`
}

// Stats gathers the admin dashboard counters and the pending list.
func (s *UserService) Stats() (*AdminStats, error) {
	total, err := s.userRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	pending, err := s.userRepo.CountByActive(false)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending users: %w", err)
	}
	active, err := s.userRepo.CountByActive(true)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	pendingUsers, err := s.userRepo.ListPending()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}

	return &AdminStats{
		TotalUsers:   total,
		PendingUsers: pending,
		ActiveUsers:  active,
		Pending:      pendingUsers,
	}, nil
}

func (s *UserService) findUser(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
