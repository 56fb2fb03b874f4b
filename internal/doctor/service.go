package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/schedule"
)

var (
	ErrNotVerified = errors.New("doctor is not verified")
	ErrEmptyFields = errors.New("specialization and license number are required")
	ErrBadFee      = errors.New("consultation fee must be positive")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubmitProfile registers a doctor's verification submission. A user gets
// one profile; after a rejection the submission overwrites it and re-enters
// the pending queue.
func (s *Service) SubmitProfile(ctx context.Context, p Profile) (*Profile, error) {
	if p.Specialization == "" || p.LicenseNumber == "" {
		return nil, ErrEmptyFields
	}
	if p.ConsultationFee <= 0 {
		return nil, ErrBadFee
	}

	existing, err := s.repo.GetProfileByUserID(ctx, p.UserID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if existing == nil {
		return s.repo.CreateProfile(ctx, p)
	}
	if existing.Status == StatusRejected {
		return s.repo.ResubmitProfile(ctx, p)
	}
	return nil, ErrProfileExists
}

// OwnProfile returns the caller's profile, or ErrProfileNotFound so the
// client can redirect to the verification form.
func (s *Service) OwnProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}

// SetAvailability replaces the doctor's weekly windows. The set is
// validated before it touches storage: every window well formed, no
// same-day overlap. Only verified doctors publish availability.
func (s *Service) SetAvailability(ctx context.Context, userID uuid.UUID, windows []schedule.Window) ([]AvailabilityWindow, error) {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Status != StatusVerified {
		return nil, ErrNotVerified
	}

	if err := schedule.ValidateSet(windows); err != nil {
		return nil, err
	}

	return s.repo.ReplaceWindows(ctx, profile.ID, windows)
}

// Availability returns the stored windows of the caller's profile.
func (s *Service) Availability(ctx context.Context, userID uuid.UUID) ([]AvailabilityWindow, error) {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetWindows(ctx, profile.ID)
}

// ListVerified is the public doctor directory.
func (s *Service) ListVerified(ctx context.Context, limit, offset int) ([]ProfileDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByStatus(ctx, StatusVerified, limit, offset)
}

// PublicDetail returns a verified doctor with availability; unverified
// profiles are invisible to patients.
func (s *Service) PublicDetail(ctx context.Context, id uuid.UUID) (*ProfileDetail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusVerified {
		return nil, ErrProfileNotFound
	}
	return d, nil
}
