package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/schedule"
)

var (
	ErrNotFound = errors.New("appointment not found")
)

// Repository contains all appointment DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	// Conflict check inside the booking critical section. Cancelled and
	// expired appointments do not hold the slot.
	GetActiveForSlot(ctx context.Context, profileID uuid.UUID, date time.Time, start schedule.Minute) (*Appointment, error)
	// TakenStarts lists the occupied slot starts for a doctor's day.
	TakenStarts(ctx context.Context, profileID uuid.UUID, date time.Time) ([]schedule.Minute, error)

	CreatePending(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateStatus is a compare-and-set from one status to another.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	// Cancel moves any non-terminal appointment to cancelled.
	Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SetPaymentOrder attaches the gateway order created for the fee.
	SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) (*Appointment, error)
	// SetPayment is a compare-and-set on the payment status.
	SetPayment(ctx context.Context, id uuid.UUID, from, to PaymentStatus) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Detail, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Detail, error)

	// Expiry worker
	FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error)

	// Admin dashboard
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	PaidRevenue(ctx context.Context) (int64, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
