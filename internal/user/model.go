package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ValidSignupRole reports whether a role may be self-assigned at signup.
// Admin accounts are provisioned out of band.
func ValidSignupRole(r Role) bool {
	return r == RolePatient || r == RoleDoctor
}

type User struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     *string
	Role      Role
	Suspended bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
