package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/invoice"
	"github.com/curelink/telemed-backend/internal/notification"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/schedule"
	"github.com/curelink/telemed-backend/internal/user"
)

func (s *Server) bookAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	start, err := schedule.ParseTime(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
		return
	}

	u := CurrentUser(r.Context())
	appt, err := s.appointments.Book(r.Context(), appointment.BookRequest{
		PatientID: u.ID,
		ProfileID: doctorID,
		VisitDate: date,
		Start:     start,
		VisitType: appointment.VisitType(req.VisitType),
		Symptoms:  req.Symptoms,
	})
	if err != nil {
		s.handleBookError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (s *Server) handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidVisitType),
		errors.Is(err, appointment.ErrPastDate),
		errors.Is(err, appointment.ErrBeyondHorizon):
		writeError(w, http.StatusBadRequest, "invalid_booking", err.Error())
	case errors.Is(err, doctor.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
	case errors.Is(err, appointment.ErrDoctorNotVerified):
		writeError(w, http.StatusConflict, "doctor_not_verified", err.Error())
	case errors.Is(err, appointment.ErrOutsideAvailability):
		writeError(w, http.StatusConflict, "outside_availability", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) listAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	u := CurrentUser(r.Context())

	// Doctors see bookings on their slots; everyone else their own.
	if u.Role == user.RoleDoctor {
		profile, err := s.doctors.OwnProfile(r.Context(), u.ID)
		if err == nil {
			details, err := s.appointments.ListByProfile(r.Context(), profile.ID, limit, offset)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			writeJSON(w, http.StatusOK, toDetailResponses(details))
			return
		}
		if !errors.Is(err, doctor.ErrProfileNotFound) {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
	}

	details, err := s.appointments.ListByPatient(r.Context(), u.ID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(details))
}

func toDetailResponses(details []appointment.Detail) []AppointmentDetailResponse {
	out := make([]AppointmentDetailResponse, 0, len(details))
	for i := range details {
		out = append(out, toAppointmentDetailResponse(&details[i]))
	}
	return out
}

func (s *Server) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}

	u := CurrentUser(r.Context())
	detail, err := s.appointments.Get(r.Context(), id, u.ID, s.actorProfileID(r), u.Role == user.RoleAdmin)
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDetailResponse(detail))
}

func (s *Server) confirmAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	s.doctorTransitionHandler(w, r, s.appointments.Confirm)
}

func (s *Server) startVisitHandler(w http.ResponseWriter, r *http.Request) {
	s.doctorTransitionHandler(w, r, s.appointments.StartVisit)
}

func (s *Server) completeVisitHandler(w http.ResponseWriter, r *http.Request) {
	s.doctorTransitionHandler(w, r, s.appointments.Complete)
}

func (s *Server) doctorTransitionHandler(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, id, actorProfileID uuid.UUID) (*appointment.Appointment, error)) {

	id, ok := apptID(w, r)
	if !ok {
		return
	}

	u := CurrentUser(r.Context())
	profile, err := s.doctors.OwnProfile(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			writeError(w, http.StatusForbidden, "not_a_doctor", "no doctor profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	appt, err := transition(r.Context(), id, profile.ID)
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) cancelAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}

	u := CurrentUser(r.Context())
	appt, err := s.appointments.Cancel(r.Context(), id, u.ID, s.actorProfileID(r))
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) capturePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}

	u := CurrentUser(r.Context())
	if _, err := s.appointments.Get(r.Context(), id, u.ID, s.actorProfileID(r), u.Role == user.RoleAdmin); err != nil {
		s.handleLifecycleError(w, err)
		return
	}

	appt, err := s.appointments.MarkPaid(r.Context(), id)
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}

	s.sendPaymentEmail(r, appt.ID)
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// sendPaymentEmail mails the receipt with the PDF invoice attached.
// Best-effort: a mail failure never fails the capture.
func (s *Server) sendPaymentEmail(r *http.Request, id uuid.UUID) {
	detail, err := s.appointments.Get(r.Context(), id, uuid.Nil, nil, true)
	if err != nil || detail.PatientEmail == nil {
		return
	}

	pdf, err := invoice.Render(detail)
	if err != nil {
		s.logger.Error().Err(err).Stringer("appointment_id", id).Msg("invoice render failed")
		return
	}

	msg := notification.Message{
		To:      *detail.PatientEmail,
		Subject: "Your consultation payment is confirmed",
		Body: fmt.Sprintf("Payment received for your %s consultation with %s on %s at %s.",
			detail.VisitType, detail.DoctorName,
			detail.VisitDate.Format("02 Jan 2006"), detail.Start.Label()),
		AttachmentName: "invoice.pdf",
		Attachment:     pdf,
	}
	if err := s.mailer.Send(msg); err != nil {
		s.logger.Error().Err(err).Stringer("appointment_id", id).Msg("confirmation email failed")
	}
}

func (s *Server) invoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}

	u := CurrentUser(r.Context())
	detail, err := s.appointments.Get(r.Context(), id, u.ID, s.actorProfileID(r), u.Role == user.RoleAdmin)
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}
	if detail.PaymentStatus != appointment.PaymentPaid {
		writeError(w, http.StatusConflict, "not_paid", "invoice is available once payment is captured")
		return
	}

	pdf, err := invoice.Render(detail)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", detail.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, appointment.ErrNotYours):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrHoldExpired):
		writeError(w, http.StatusConflict, "appointment_expired", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "already_paid", err.Error())
	case errors.Is(err, appointment.ErrNotPaid):
		writeError(w, http.StatusConflict, "not_paid", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// actorProfileID resolves the caller's doctor profile if they have one.
func (s *Server) actorProfileID(r *http.Request) *uuid.UUID {
	u := CurrentUser(r.Context())
	if u == nil || u.Role != user.RoleDoctor {
		return nil
	}
	profile, err := s.doctors.OwnProfile(r.Context(), u.ID)
	if err != nil {
		return nil
	}
	return &profile.ID
}

func apptID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
