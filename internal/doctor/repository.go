package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/schedule"
)

var (
	ErrProfileNotFound = errors.New("doctor profile not found")
	ErrProfileExists   = errors.New("doctor profile already submitted")
)

// Repository contains all doctor-profile DB interactions.
type Repository interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	CreateProfile(ctx context.Context, p Profile) (*Profile, error)
	// ResubmitProfile overwrites a rejected profile and resets it to pending.
	ResubmitProfile(ctx context.Context, p Profile) (*Profile, error)
	SetVerification(ctx context.Context, id uuid.UUID, status VerificationStatus, reason *string) (*Profile, error)

	ListByStatus(ctx context.Context, status VerificationStatus, limit, offset int) ([]ProfileDetail, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*ProfileDetail, error)
	CountByStatus(ctx context.Context) (map[VerificationStatus]int64, error)

	// ReplaceWindows swaps the profile's full weekly set atomically.
	ReplaceWindows(ctx context.Context, profileID uuid.UUID, windows []schedule.Window) ([]AvailabilityWindow, error)
	GetWindows(ctx context.Context, profileID uuid.UUID) ([]AvailabilityWindow, error)
}
