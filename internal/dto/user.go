package dto

import (
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
)

// UserDTO is the public shape of a user: credential and token fields
// never leave the service.
type UserDTO struct {
	ID                 uint64            `json:"id"`
	Name               string            `json:"name"`
	Email              string            `json:"email"`
	Phone              string            `json:"phone,omitempty"`
	Role               models.UserRole   `json:"role"`
	Status             models.UserStatus `json:"status"`
	IsEmailVerified    bool              `json:"is_email_verified"`
	LastLogin          *time.Time        `json:"last_login,omitempty"`
	DefaultWorkspaceID *uint64           `json:"default_workspace_id,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// ToUserDTO converts a user to its public shape
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Phone:              user.Phone,
		Role:               user.Role,
		Status:             user.Status,
		IsEmailVerified:    user.IsEmailVerified,
		LastLogin:          user.LastLogin,
		DefaultWorkspaceID: user.DefaultWorkspaceID,
		CreatedAt:          user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}
