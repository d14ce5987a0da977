package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput rotates a refresh token.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserDTO is the API shape of an account.
type UserDTO struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      enums.MemberRole `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
}

// SessionDTO carries the minted token pair back to the client.
type SessionDTO struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int     `json:"expires_in"`
}

func toUserDTO(record *models.User) UserDTO {
	return UserDTO{
		ID:        record.ID,
		Email:     record.Email,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Role:      record.Role,
		CreatedAt: record.CreatedAt,
	}
}
