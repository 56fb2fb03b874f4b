package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/schedule"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type VisitType string

const (
	VisitVideo  VisitType = "video"
	VisitClinic VisitType = "clinic"
	VisitHome   VisitType = "home"
)

func ValidVisitType(t VisitType) bool {
	return t == VisitVideo || t == VisitClinic || t == VisitHome
}

// DefaultSymptoms fills the free-text field when the patient leaves it blank.
const DefaultSymptoms = "General consultation"

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	ProfileID      uuid.UUID // doctor profile
	VisitDate      time.Time // UTC midnight of the visit day
	Start          schedule.Minute
	End            schedule.Minute // Start + slot length, wrapped at midnight
	VisitType      VisitType
	Status         Status
	PaymentStatus  PaymentStatus
	Amount         int64
	PaymentOrderID *string
	Symptoms       string
	Notes          *string
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SlotKey identifies the bookable unit an appointment occupies. It keys
// the distributed lock and the conflict check.
func (a *Appointment) SlotKey() string {
	return SlotKey(a.ProfileID, a.VisitDate, a.Start)
}

func SlotKey(profileID uuid.UUID, date time.Time, start schedule.Minute) string {
	return fmt.Sprintf("%s:%s:%04d", profileID, date.Format("2006-01-02"), int(start))
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Detail is an appointment hydrated with the people on both sides.
type Detail struct {
	Appointment
	PatientName    string
	PatientEmail   *string
	DoctorName     string
	Specialization string
}
