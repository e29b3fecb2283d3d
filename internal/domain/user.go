package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         *string
	Phone        *string
	Address      *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries only the fields that should change.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil
}

type ContactRequest struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Message   string
	CreatedAt time.Time
}
