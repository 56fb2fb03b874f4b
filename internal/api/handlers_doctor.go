package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/schedule"
)

func (s *Server) submitProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	u := CurrentUser(r.Context())
	profile, err := s.doctors.SubmitProfile(r.Context(), doctor.Profile{
		UserID:          u.ID,
		Specialization:  req.Specialization,
		LicenseNumber:   req.LicenseNumber,
		Bio:             req.Bio,
		ConsultationFee: req.ConsultationFee,
	})
	if err != nil {
		switch {
		case errors.Is(err, doctor.ErrEmptyFields), errors.Is(err, doctor.ErrBadFee):
			writeError(w, http.StatusBadRequest, "invalid_profile", err.Error())
		case errors.Is(err, doctor.ErrProfileExists):
			writeError(w, http.StatusConflict, "profile_exists", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

// ownProfileHandler backs the mobile layout's profile gate: 404 sends the
// client to the verification form, any profile unlocks the tab bar.
func (s *Server) ownProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	profile, err := s.doctors.OwnProfile(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "no doctor profile submitted")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) setAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	windows := make([]schedule.Window, 0, len(req.Windows))
	for _, p := range req.Windows {
		if p.Weekday < 0 || p.Weekday > 6 {
			writeError(w, http.StatusBadRequest, "invalid_weekday", "weekday must be 0 (Sunday) through 6")
			return
		}
		start, err := schedule.ParseClock(p.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}
		end, err := schedule.ParseClock(p.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}
		windows = append(windows, schedule.Window{
			Weekday: time.Weekday(p.Weekday),
			Start:   start,
			End:     end,
		})
	}

	u := CurrentUser(r.Context())
	saved, err := s.doctors.SetAvailability(r.Context(), u.ID, windows)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidWindow), errors.Is(err, schedule.ErrWindowOverlap):
			writeError(w, http.StatusBadRequest, "invalid_availability", err.Error())
		case errors.Is(err, doctor.ErrNotVerified):
			writeError(w, http.StatusForbidden, "not_verified", err.Error())
		case errors.Is(err, doctor.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, toWindowResponses(saved))
}

func (s *Server) ownAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	windows, err := s.doctors.Availability(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toWindowResponses(windows))
}

func (s *Server) listDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	doctors, err := s.doctors.ListVerified(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	items := make([]DoctorListItem, 0, len(doctors))
	for _, d := range doctors {
		items = append(items, toDoctorListItem(d))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) doctorDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
		return
	}

	d, err := s.doctors.PublicDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, DoctorDetailResponse{
		DoctorListItem: toDoctorListItem(*d),
		Windows:        toWindowResponses(d.Windows),
	})
}

func (s *Server) doctorSlotsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
		return
	}

	dateStr := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	buckets, err := s.appointments.FreeSlots(r.Context(), id, date)
	if err != nil {
		switch {
		case errors.Is(err, doctor.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
		case errors.Is(err, appointment.ErrDoctorNotVerified):
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, DaySlotsResponse{
		Date:      date.Format("2006-01-02"),
		Morning:   toSlotResponses(buckets.Morning),
		Afternoon: toSlotResponses(buckets.Afternoon),
		Evening:   toSlotResponses(buckets.Evening),
	})
}
