package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/curelink/telemed-backend/internal/auth"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/user"
)

func (s *Server) requestCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	if err := s.auth.RequestCode(r.Context(), req.Phone); err != nil {
		switch {
		case errors.Is(err, auth.ErrBadPhone):
			writeError(w, http.StatusBadRequest, "invalid_phone", err.Error())
		case errors.Is(err, auth.ErrSuspended):
			writeError(w, http.StatusForbidden, "account_suspended", err.Error())
		case errors.Is(err, redisclient.ErrResendTooSoon):
			writeError(w, http.StatusTooManyRequests, "resend_too_soon", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_sent"})
}

func (s *Server) verifyCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	session, err := s.auth.VerifyCode(r.Context(), auth.VerifyRequest{
		Phone: req.Phone,
		Code:  req.Code,
		Name:  req.Name,
		Email: req.Email,
		Role:  user.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadPhone),
			errors.Is(err, auth.ErrNameRequired),
			errors.Is(err, auth.ErrRoleForbidden):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, redisclient.ErrCodeNotFound),
			errors.Is(err, redisclient.ErrCodeMismatch):
			writeError(w, http.StatusUnauthorized, "invalid_code", err.Error())
		case errors.Is(err, redisclient.ErrTooManyAttempts):
			writeError(w, http.StatusTooManyRequests, "too_many_attempts", err.Error())
		case errors.Is(err, auth.ErrSuspended):
			writeError(w, http.StatusForbidden, "account_suspended", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Token: session.Token,
		User:  toUserResponse(session.User),
	})
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(CurrentUser(r.Context())))
}
