package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/payment"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/schedule"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventVisitStarted     = "VISIT_STARTED"
	EventVisitCompleted   = "VISIT_COMPLETED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventBookingExpired   = "BOOKING_EXPIRED"
	EventPaymentCaptured  = "PAYMENT_CAPTURED"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
)

// BookingHorizon is how far ahead a patient may book, matching the
// 7-day rolling window the clients present.
const BookingHorizon = 7 * 24 * time.Hour

var (
	ErrSlotTaken           = errors.New("slot already has an active appointment")
	ErrSlotBeingBooked     = errors.New("slot is currently being booked, please retry")
	ErrOutsideAvailability = errors.New("requested time is outside the doctor's availability")
	ErrDoctorNotVerified   = errors.New("doctor is not accepting bookings")
	ErrPastDate            = errors.New("visit date is in the past")
	ErrBeyondHorizon       = errors.New("visit date is beyond the booking window")
	ErrInvalidVisitType    = errors.New("invalid visit type")
	ErrHoldExpired         = errors.New("appointment hold has expired")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotYours            = errors.New("appointment belongs to someone else")
	ErrNotPaid             = errors.New("appointment is not paid")
	ErrAlreadyPaid         = errors.New("appointment is already paid")
)

type Service struct {
	repo    Repository
	doctors doctor.Repository
	locker  redisclient.Locker
	gateway payment.Gateway
	holdTTL time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, doctors doctor.Repository, locker redisclient.Locker, gateway payment.Gateway, holdTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		locker:  locker,
		gateway: gateway,
		holdTTL: holdTTL,
		logger:  logger.With().Str("component", "appointment").Logger(),
		now:     time.Now,
	}
}

type BookRequest struct {
	PatientID uuid.UUID
	ProfileID uuid.UUID
	VisitDate time.Time
	Start     schedule.Minute
	VisitType VisitType
	Symptoms  string
}

// Book reserves a slot for a patient. A distributed per-slot lock
// guarantees that concurrent requests for the same doctor/date/time
// cannot both create a hold; inside the critical section the slot is
// re-checked for an active appointment.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if !ValidVisitType(req.VisitType) {
		return nil, ErrInvalidVisitType
	}

	date := req.VisitDate.UTC().Truncate(24 * time.Hour)
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, ErrPastDate
	}
	if date.After(today.Add(BookingHorizon)) {
		return nil, ErrBeyondHorizon
	}

	profile, err := s.doctors.GetProfileByID(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	if profile.Status != doctor.StatusVerified {
		return nil, ErrDoctorNotVerified
	}

	windows, err := s.doctors.GetWindows(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if !slotOffered(doctor.Windows(windows), date.Weekday(), req.Start) {
		return nil, ErrOutsideAvailability
	}

	symptoms := req.Symptoms
	if symptoms == "" {
		symptoms = DefaultSymptoms
	}

	slot := schedule.NewSlot(req.Start)
	slotKey := SlotKey(profile.ID, date, slot.Start)

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		existing, err := s.repo.GetActiveForSlot(lockCtx, profile.ID, date, slot.Start)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		expiresAt := s.now().Add(s.holdTTL)
		appt, err := s.repo.CreatePending(lockCtx, Appointment{
			PatientID: req.PatientID,
			ProfileID: profile.ID,
			VisitDate: date,
			Start:     slot.Start,
			End:       slot.End,
			VisitType: req.VisitType,
			Amount:    profile.ConsultationFee,
			Symptoms:  symptoms,
			ExpiresAt: &expiresAt,
		})
		if err != nil {
			return fmt.Errorf("create pending appointment: %w", err)
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventBookingCreated, map[string]any{
			"profile_id": profile.ID.String(),
			"patient_id": req.PatientID.String(),
			"date":       date.Format("2006-01-02"),
			"start":      slot.Start.Clock(),
			"expires_at": expiresAt,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	// The gateway order is created outside the lock; a gateway outage
	// leaves the hold payable via the offline path.
	orderID, err := s.gateway.CreateOrder(ctx, created.Amount, created.ID.String())
	if err != nil {
		s.logger.Error().Err(err).Stringer("appointment_id", created.ID).Msg("payment order creation failed")
		return created, nil
	}

	updated, err := s.repo.SetPaymentOrder(ctx, created.ID, orderID)
	if err != nil {
		s.logger.Error().Err(err).Stringer("appointment_id", created.ID).Msg("attach payment order failed")
		return created, nil
	}
	return updated, nil
}

func slotOffered(windows []schedule.Window, weekday time.Weekday, start schedule.Minute) bool {
	for _, slot := range schedule.DaySlots(windows, weekday, schedule.DefaultSlotLength) {
		if slot.Start == start {
			return true
		}
	}
	return false
}

// FreeSlots returns the doctor's open slots for one date, bucketed for
// display, with already-held slots removed.
func (s *Service) FreeSlots(ctx context.Context, profileID uuid.UUID, date time.Time) (schedule.Buckets, error) {
	profile, err := s.doctors.GetProfileByID(ctx, profileID)
	if err != nil {
		return schedule.Buckets{}, fmt.Errorf("load doctor profile: %w", err)
	}
	if profile.Status != doctor.StatusVerified {
		return schedule.Buckets{}, ErrDoctorNotVerified
	}

	windows, err := s.doctors.GetWindows(ctx, profile.ID)
	if err != nil {
		return schedule.Buckets{}, fmt.Errorf("load availability: %w", err)
	}

	date = date.UTC().Truncate(24 * time.Hour)
	slots := schedule.DaySlots(doctor.Windows(windows), date.Weekday(), schedule.DefaultSlotLength)

	taken, err := s.repo.TakenStarts(ctx, profile.ID, date)
	if err != nil {
		return schedule.Buckets{}, fmt.Errorf("load taken slots: %w", err)
	}

	return schedule.Bucket(schedule.Subtract(slots, taken)), nil
}

// Confirm moves a pending appointment to confirmed. Only the doctor who
// owns the slot may confirm. An elapsed hold is flipped to expired lazily.
func (s *Service) Confirm(ctx context.Context, id, actorProfileID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.ProfileID != actorProfileID {
		return nil, ErrNotYours
	}

	if appt.Status == StatusExpired {
		return nil, ErrHoldExpired
	}

	if appt.ExpiresAt != nil && appt.ExpiresAt.Before(s.now()) && appt.Status == StatusPending {
		if _, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusExpired); err != nil {
			// A lost CAS means the worker already expired and logged it.
			if !errors.Is(err, ErrNotFound) {
				s.logger.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("lazy expire on confirm failed")
			}
		} else {
			s.logEvent(ctx, appt.ID, EventBookingExpired, map[string]any{"reason": "confirm_after_expiry"})
		}
		return nil, ErrHoldExpired
	}

	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}
	s.logEvent(ctx, updated.ID, EventBookingConfirmed, map[string]any{})
	return updated, nil
}

// StartVisit moves a confirmed appointment to in_progress.
func (s *Service) StartVisit(ctx context.Context, id, actorProfileID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, actorProfileID, StatusConfirmed, StatusInProgress, EventVisitStarted)
}

// Complete moves an in-progress appointment to completed.
func (s *Service) Complete(ctx context.Context, id, actorProfileID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, actorProfileID, StatusInProgress, StatusCompleted, EventVisitCompleted)
}

func (s *Service) doctorTransition(ctx context.Context, id, actorProfileID uuid.UUID, from, to Status, event string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.ProfileID != actorProfileID {
		return nil, ErrNotYours
	}
	if appt.Status != from {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, from, to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.logEvent(ctx, updated.ID, event, map[string]any{})
	return updated, nil
}

// Cancel moves any non-terminal appointment to cancelled. Patients cancel
// their own bookings; doctors cancel bookings on their own slots.
func (s *Service) Cancel(ctx context.Context, id, actorUserID uuid.UUID, actorProfileID *uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	owns := appt.PatientID == actorUserID ||
		(actorProfileID != nil && appt.ProfileID == *actorProfileID)
	if !owns {
		return nil, ErrNotYours
	}
	if appt.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.Cancel(ctx, appt.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"by": actorUserID.String(),
	})
	return updated, nil
}

// MarkPaid captures the fee for a pending-payment appointment.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.PaymentStatus == PaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if appt.Status == StatusExpired || appt.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.SetPayment(ctx, appt.ID, PaymentPending, PaymentPaid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventPaymentCaptured, map[string]any{
		"amount": updated.Amount,
	})
	return updated, nil
}

// Refund reverses a captured payment. Admin only; enforcement sits at
// the API edge.
func (s *Service) Refund(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.SetPayment(ctx, id, PaymentPaid, PaymentRefunded)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotPaid
		}
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventPaymentRefunded, map[string]any{
		"amount": updated.Amount,
	})
	return updated, nil
}

// ExpirePending is called by the worker periodically.
func (s *Service) ExpirePending(ctx context.Context) error {
	candidates, err := s.repo.FindExpiredPending(ctx, s.now())
	if err != nil {
		return fmt.Errorf("find expired pending appointments: %w", err)
	}

	for _, appt := range candidates {
		if _, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusExpired); err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("expire failed")
			}
			continue
		}
		s.logEvent(ctx, appt.ID, EventBookingExpired, map[string]any{"reason": "worker"})
	}
	return nil
}

// Get returns a hydrated appointment, restricted to its participants.
func (s *Service) Get(ctx context.Context, id, actorUserID uuid.UUID, actorProfileID *uuid.UUID, admin bool) (*Detail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	owns := admin || detail.PatientID == actorUserID ||
		(actorProfileID != nil && detail.ProfileID == *actorProfileID)
	if !owns {
		return nil, ErrNotYours
	}
	return detail, nil
}

// ListByPatient retrieves appointments for one patient, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Detail, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListByProfile retrieves appointments on one doctor's slots.
func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Detail, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByProfile(ctx, profileID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("marshal event payload failed")
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Stringer("appointment_id", appointmentID).Msg("insert event log failed")
	}
}
