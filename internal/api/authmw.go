package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/curelink/telemed-backend/internal/auth"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/user"
)

const userKey contextKey = "current_user"

// Authenticator turns bearer tokens into loaded users. Loading on every
// request makes suspensions effective immediately, not at token expiry,
// and the revoker kills tokens minted before a suspension outright.
type Authenticator struct {
	issuer  *auth.TokenIssuer
	users   user.Repository
	revoker redisclient.SessionRevoker
}

func NewAuthenticator(issuer *auth.TokenIssuer, users user.Repository, revoker redisclient.SessionRevoker) *Authenticator {
	return &Authenticator{issuer: issuer, users: users, revoker: revoker}
}

// RequireUser rejects requests without a valid session.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token required")
			return
		}

		claims, err := a.issuer.Parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
			return
		}

		id, err := claims.UserID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "token subject is malformed")
			return
		}

		// A store error skips the check; the per-request user reload
		// below still enforces suspension.
		if cutoff, err := a.revoker.RevokedAt(r.Context(), id); err == nil && !cutoff.IsZero() {
			if claims.IssuedAt == nil || !claims.IssuedAt.Time.After(cutoff) {
				writeError(w, http.StatusUnauthorized, "revoked_token", "session has been revoked")
				return
			}
		}

		u, err := a.users.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown_user", "account no longer exists")
			return
		}
		if u.Suspended {
			writeError(w, http.StatusForbidden, "account_suspended", "account is suspended")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a subtree to one role. Must run after RequireUser.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r.Context())
			if u == nil || u.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user, nil outside RequireUser.
func CurrentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
