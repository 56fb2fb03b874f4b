package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/doctor"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/user"
)

var (
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrSelfSuspend    = errors.New("admins cannot suspend themselves")
)

// Service bundles the moderation operations of the admin dashboard.
type Service struct {
	users        user.Repository
	doctors      doctor.Repository
	appointments *appointment.Service
	apptRepo     appointment.Repository
	revoker      redisclient.SessionRevoker
	logger       zerolog.Logger
}

func NewService(users user.Repository, doctors doctor.Repository, appointments *appointment.Service, apptRepo appointment.Repository, revoker redisclient.SessionRevoker, logger zerolog.Logger) *Service {
	return &Service{
		users:        users,
		doctors:      doctors,
		appointments: appointments,
		apptRepo:     apptRepo,
		revoker:      revoker,
		logger:       logger.With().Str("component", "admin").Logger(),
	}
}

// PendingDoctors lists profiles awaiting verification.
func (s *Service) PendingDoctors(ctx context.Context, limit, offset int) ([]doctor.ProfileDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.doctors.ListByStatus(ctx, doctor.StatusPending, limit, offset)
}

// ReviewDoctor approves or rejects a verification submission. Rejections
// must say why; the reason is surfaced to the doctor.
func (s *Service) ReviewDoctor(ctx context.Context, profileID uuid.UUID, verified bool, reason *string) (*doctor.Profile, error) {
	status := doctor.StatusVerified
	if !verified {
		status = doctor.StatusRejected
		if reason == nil || *reason == "" {
			return nil, ErrReasonRequired
		}
	} else {
		reason = nil
	}

	p, err := s.doctors.SetVerification(ctx, profileID, status, reason)
	if err != nil {
		return nil, fmt.Errorf("set verification: %w", err)
	}

	s.logger.Info().
		Stringer("profile_id", p.ID).
		Str("status", string(p.Status)).
		Msg("doctor reviewed")
	return p, nil
}

// SetSuspended toggles a user's suspension flag. Last write wins when
// two admin sessions race; there is no client-side conflict detection.
func (s *Service) SetSuspended(ctx context.Context, actorID, targetID uuid.UUID, suspended bool) (*user.User, error) {
	if actorID == targetID {
		return nil, ErrSelfSuspend
	}

	u, err := s.users.SetSuspended(ctx, targetID, suspended)
	if err != nil {
		return nil, err
	}

	if suspended {
		if err := s.revoker.Revoke(ctx, u.ID); err != nil {
			// Sessions die at the next request anyway: the auth
			// middleware reloads the user and sees the flag.
			s.logger.Error().Err(err).Stringer("user_id", u.ID).Msg("session revocation failed")
		}
	}

	s.logger.Info().
		Stringer("user_id", u.ID).
		Bool("suspended", u.Suspended).
		Stringer("by", actorID).
		Msg("suspension toggled")
	return u, nil
}

// ListUsers pages through accounts, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, role user.Role, limit, offset int) ([]user.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, role, limit, offset)
}

// Refund reverses a captured appointment payment.
func (s *Service) Refund(ctx context.Context, appointmentID uuid.UUID) (*appointment.Appointment, error) {
	return s.appointments.Refund(ctx, appointmentID)
}

// Stats is the dashboard summary.
type Stats struct {
	UsersByRole          map[user.Role]int64                 `json:"users_by_role"`
	DoctorsByStatus      map[doctor.VerificationStatus]int64 `json:"doctors_by_status"`
	AppointmentsByStatus map[appointment.Status]int64        `json:"appointments_by_status"`
	PaidRevenue          int64                               `json:"paid_revenue"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	doctors, err := s.doctors.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	appts, err := s.apptRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	revenue, err := s.apptRepo.PaidRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	return &Stats{
		UsersByRole:          users,
		DoctorsByStatus:      doctors,
		AppointmentsByStatus: appts,
		PaidRevenue:          revenue,
	}, nil
}
