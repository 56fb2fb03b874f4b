package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/telemed-backend/internal/admin"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/user"
)

func (s *Server) pendingDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	pending, err := s.admin.PendingDoctors(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	out := make([]ProfileResponse, 0, len(pending))
	for i := range pending {
		out = append(out, toProfileResponse(&pending[i].Profile))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reviewDoctorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
		return
	}

	var req ReviewDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	profile, err := s.admin.ReviewDoctor(r.Context(), id, req.Verified, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrReasonRequired):
			writeError(w, http.StatusBadRequest, "reason_required", err.Error())
		case errors.Is(err, doctor.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	role := user.Role(r.URL.Query().Get("role"))

	users, err := s.admin.ListUsers(r.Context(), role, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) suspendUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
		return
	}

	var req SuspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	actor := CurrentUser(r.Context())
	u, err := s.admin.SetSuspended(r.Context(), actor.ID, id, req.Suspended)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrSelfSuspend):
			writeError(w, http.StatusBadRequest, "self_suspend", err.Error())
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "user_not_found", "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) refundHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := apptID(w, r)
	if !ok {
		return
	}

	appt, err := s.admin.Refund(r.Context(), id)
	if err != nil {
		s.handleLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
