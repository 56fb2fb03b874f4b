package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/doctor"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleBookError(t *testing.T) {
	s := &Server{}

	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{appointment.ErrInvalidVisitType, http.StatusBadRequest, "invalid_booking"},
		{appointment.ErrPastDate, http.StatusBadRequest, "invalid_booking"},
		{appointment.ErrBeyondHorizon, http.StatusBadRequest, "invalid_booking"},
		{fmt.Errorf("load doctor profile: %w", doctor.ErrProfileNotFound), http.StatusNotFound, "doctor_not_found"},
		{appointment.ErrDoctorNotVerified, http.StatusConflict, "doctor_not_verified"},
		{appointment.ErrOutsideAvailability, http.StatusConflict, "outside_availability"},
		{appointment.ErrSlotTaken, http.StatusConflict, "slot_taken"},
		{appointment.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{redisclient.ErrLockNotAcquired, http.StatusConflict, "slot_being_booked"},
		{errors.New("pg down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode+"/"+tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.handleBookError(rec, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestHandleLifecycleError(t *testing.T) {
	s := &Server{}

	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("load appointment: %w", appointment.ErrNotFound), http.StatusNotFound, "appointment_not_found"},
		{appointment.ErrNotYours, http.StatusForbidden, "forbidden"},
		{appointment.ErrHoldExpired, http.StatusConflict, "appointment_expired"},
		{appointment.ErrInvalidTransition, http.StatusConflict, "invalid_status_transition"},
		{appointment.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
		{appointment.ErrNotPaid, http.StatusConflict, "not_paid"},
		{errors.New("pg down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.handleLifecycleError(rec, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Error)
		})
	}
}
