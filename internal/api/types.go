package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/schedule"
	"github.com/curelink/telemed-backend/internal/user"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Auth

type RequestCodeRequest struct {
	Phone string `json:"phone"`
}

type VerifyCodeRequest struct {
	Phone string  `json:"phone"`
	Code  string  `json:"code"`
	Name  string  `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  string  `json:"role,omitempty"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	Role      string    `json:"role"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      string(u.Role),
		Suspended: u.Suspended,
		CreatedAt: u.CreatedAt,
	}
}

// Doctor

type SubmitProfileRequest struct {
	Specialization  string  `json:"specialization"`
	LicenseNumber   string  `json:"license_number"`
	Bio             *string `json:"bio,omitempty"`
	ConsultationFee int64   `json:"consultation_fee"`
}

type ProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Specialization  string    `json:"specialization"`
	LicenseNumber   string    `json:"license_number"`
	Bio             *string   `json:"bio,omitempty"`
	ConsultationFee int64     `json:"consultation_fee"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
}

func toProfileResponse(p *doctor.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		Specialization:  p.Specialization,
		LicenseNumber:   p.LicenseNumber,
		Bio:             p.Bio,
		ConsultationFee: p.ConsultationFee,
		Status:          string(p.Status),
		RejectionReason: p.RejectionReason,
	}
}

type WindowPayload struct {
	Weekday   int    `json:"weekday"` // 0 = Sunday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type SetAvailabilityRequest struct {
	Windows []WindowPayload `json:"windows"`
}

type WindowResponse struct {
	ID        uuid.UUID `json:"id"`
	Weekday   int       `json:"weekday"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

func toWindowResponses(rows []doctor.AvailabilityWindow) []WindowResponse {
	out := make([]WindowResponse, 0, len(rows))
	for _, w := range rows {
		out = append(out, WindowResponse{
			ID:        w.ID,
			Weekday:   int(w.Weekday),
			StartTime: w.Start.Clock(),
			EndTime:   w.End.Clock(),
		})
	}
	return out
}

type DoctorListItem struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Specialization  string    `json:"specialization"`
	Bio             *string   `json:"bio,omitempty"`
	ConsultationFee int64     `json:"consultation_fee"`
}

func toDoctorListItem(d doctor.ProfileDetail) DoctorListItem {
	return DoctorListItem{
		ID:              d.ID,
		Name:            d.DoctorName,
		Specialization:  d.Specialization,
		Bio:             d.Bio,
		ConsultationFee: d.ConsultationFee,
	}
}

type DoctorDetailResponse struct {
	DoctorListItem
	Windows []WindowResponse `json:"availability"`
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Label     string `json:"label"`
}

type DaySlotsResponse struct {
	Date      string         `json:"date"`
	Morning   []SlotResponse `json:"morning"`
	Afternoon []SlotResponse `json:"afternoon"`
	Evening   []SlotResponse `json:"evening"`
}

func toSlotResponses(slots []schedule.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			StartTime: s.Start.Clock(),
			EndTime:   s.End.Clock(),
			Label:     s.Label(),
		})
	}
	return out
}

// Appointments

type BookAppointmentRequest struct {
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM 24-hour
	VisitType string `json:"type"`
	Symptoms  string `json:"symptoms,omitempty"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       uuid.UUID  `json:"doctor_id"`
	Date           string     `json:"date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	StartLabel     string     `json:"start_label"`
	EndLabel       string     `json:"end_label"`
	VisitType      string     `json:"type"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	Amount         int64      `json:"amount"`
	PaymentOrderID *string    `json:"payment_order_id,omitempty"`
	Symptoms       string     `json:"symptoms"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		DoctorID:       a.ProfileID,
		Date:           a.VisitDate.Format("2006-01-02"),
		StartTime:      a.Start.Clock(),
		EndTime:        a.End.Clock(),
		StartLabel:     a.Start.Label(),
		EndLabel:       a.End.Label(),
		VisitType:      string(a.VisitType),
		Status:         string(a.Status),
		PaymentStatus:  string(a.PaymentStatus),
		Amount:         a.Amount,
		PaymentOrderID: a.PaymentOrderID,
		Symptoms:       a.Symptoms,
		ExpiresAt:      a.ExpiresAt,
	}
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName    string `json:"patient_name"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

func toAppointmentDetailResponse(d *appointment.Detail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
		PatientName:         d.PatientName,
		DoctorName:          d.DoctorName,
		Specialization:      d.Specialization,
	}
}

// Admin

type ReviewDoctorRequest struct {
	Verified        bool    `json:"verified"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type SuspendRequest struct {
	Suspended bool `json:"suspended"`
}
