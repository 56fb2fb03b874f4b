package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/schedule"
)

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Profile is a doctor's practice record. It is created when the doctor
// submits verification and gates everything else: an unverified doctor
// cannot publish availability or be booked.
type Profile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Specialization  string
	LicenseNumber   string
	Bio             *string
	ConsultationFee int64 // minor currency units
	Status          VerificationStatus
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailabilityWindow is a stored weekly recurring range for one profile.
type AvailabilityWindow struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	Weekday   time.Weekday
	Start     schedule.Minute
	End       schedule.Minute
	CreatedAt time.Time
}

// Window converts the stored row to the schedule package's pure form.
func (w AvailabilityWindow) Window() schedule.Window {
	return schedule.Window{Weekday: w.Weekday, Start: w.Start, End: w.End}
}

// Windows maps a full stored set.
func Windows(rows []AvailabilityWindow) []schedule.Window {
	out := make([]schedule.Window, len(rows))
	for i, r := range rows {
		out[i] = r.Window()
	}
	return out
}

// ProfileDetail carries the profile with its owner's public identity.
type ProfileDetail struct {
	Profile
	DoctorName string
	Windows    []AvailabilityWindow
}
