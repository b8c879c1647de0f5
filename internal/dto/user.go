package dto

import (
	"time"

	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email,omitempty"`
	Role     policy.Role `json:"role"`
	Active   bool        `json:"active"`
}

// UserDetailDTO represents a user in admin responses
type UserDetailDTO struct {
	UserDTO
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Active:   user.Active,
	}
}

// ToUserDetailDTO converts a User model to UserDetailDTO
func ToUserDetailDTO(user models.User) UserDetailDTO {
	return UserDetailDTO{
		UserDTO:   ToUserDTO(user),
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDetailDTOs converts a slice of users
func ToUserDetailDTOs(users []models.User) []UserDetailDTO {
	items := make([]UserDetailDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDetailDTO(user)
	}
	return items
}
