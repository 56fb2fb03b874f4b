package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrPhoneTaken  = errors.New("phone number already registered")
	ErrInvalidRole = errors.New("invalid role")
)

// Repository contains all user DB interactions.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	Create(ctx context.Context, name, phone string, email *string, role Role) (*User, error)
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) (*User, error)
	List(ctx context.Context, role Role, limit, offset int) ([]User, error)
	CountByRole(ctx context.Context) (map[Role]int64, error)
}
