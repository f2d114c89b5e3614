package dto

import (
	"time"

	"github.com/google/uuid"

	"skill-journal/internal/domain/user"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func NewUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Provider:  string(u.Provider),
		CreatedAt: u.CreatedAt,
	}
}
