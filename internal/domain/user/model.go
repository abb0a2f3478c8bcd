package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a patient account. PublicID is the identifier exposed to clients
// and carried as the token subject; ID stays internal to the store.
type User struct {
	ID           int64     `json:"id"`
	PublicID     uuid.UUID `json:"publicId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	PublicID string `json:"publicId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRequest replaces name and email. Password is changed only when
// non-empty.
type UpdateRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	CurrentPassword string `json:"currentPassword"`
}
