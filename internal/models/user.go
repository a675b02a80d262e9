package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Role           Role
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time // nil unless the user was deactivated
}

// Profile holds the mutable contact data kept separately from credentials
type Profile struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
