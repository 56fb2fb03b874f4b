package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelink/telemed-backend/internal/auth"
	"github.com/curelink/telemed-backend/internal/user"
)

type stubUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newStubUserRepo(users ...*user.User) *stubUserRepo {
	m := make(map[uuid.UUID]*user.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &stubUserRepo{users: m}
}

func (s *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) GetByPhone(_ context.Context, phone string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) Create(_ context.Context, name, phone string, email *string, role user.Role) (*user.User, error) {
	return nil, user.ErrPhoneTaken
}

func (s *stubUserRepo) SetSuspended(_ context.Context, id uuid.UUID, suspended bool) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) List(_ context.Context, role user.Role, limit, offset int) ([]user.User, error) {
	return nil, nil
}

func (s *stubUserRepo) CountByRole(_ context.Context) (map[user.Role]int64, error) {
	return nil, nil
}

type fakeRevoker struct {
	cutoffs map[uuid.UUID]time.Time
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, id uuid.UUID) error {
	if f.cutoffs == nil {
		f.cutoffs = map[uuid.UUID]time.Time{}
	}
	f.cutoffs[id] = time.Now()
	return nil
}

func (f *fakeRevoker) RevokedAt(_ context.Context, id uuid.UUID) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	return f.cutoffs[id], nil
}

func echoUserHandler(t *testing.T, want uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		require.NotNil(t, u)
		assert.Equal(t, want, u.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireUser(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Name: "Asha", Role: user.RolePatient}
	authn := NewAuthenticator(issuer, newStubUserRepo(u), &fakeRevoker{})

	token, err := issuer.Issue(u, time.Now())
	require.NoError(t, err)

	handler := authn.RequireUser(echoUserHandler(t, u.ID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireUserRejections(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	known := &user.User{ID: uuid.New(), Role: user.RolePatient}
	suspended := &user.User{ID: uuid.New(), Role: user.RolePatient, Suspended: true}
	authn := NewAuthenticator(issuer, newStubUserRepo(known, suspended), &fakeRevoker{})

	deleted := &user.User{ID: uuid.New(), Role: user.RolePatient}
	deletedToken, _ := issuer.Issue(deleted, time.Now())
	suspendedToken, _ := issuer.Issue(suspended, time.Now())
	expiredToken, _ := issuer.Issue(known, time.Now().Add(-2*time.Hour))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := authn.RequireUser(next)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expiredToken, want: http.StatusUnauthorized},
		{name: "deleted account", header: "Bearer " + deletedToken, want: http.StatusUnauthorized},
		{name: "suspended account", header: "Bearer " + suspendedToken, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireUserRevokedToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Name: "Asha", Role: user.RolePatient}
	revoker := &fakeRevoker{}
	authn := NewAuthenticator(issuer, newStubUserRepo(u), revoker)

	oldToken, err := issuer.Issue(u, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), u.ID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	rec := httptest.NewRecorder()
	authn.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("revoked session must not pass")
	})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A token minted after the cutoff is a fresh session and passes.
	freshToken, err := issuer.Issue(u, time.Now().Add(time.Minute))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+freshToken)
	rec = httptest.NewRecorder()
	authn.RequireUser(echoUserHandler(t, u.ID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A store outage falls back to the user reload instead of locking
	// everyone out.
	revoker.err = context.DeadlineExceeded
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	rec = httptest.NewRecorder()
	authn.RequireUser(echoUserHandler(t, u.ID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRole(t *testing.T) {
	doctorOnly := RequireRole(user.RoleDoctor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	asUser := func(u *user.User) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/doctor/profile", nil)
		if u != nil {
			req = req.WithContext(context.WithValue(req.Context(), userKey, u))
		}
		return req
	}

	rec := httptest.NewRecorder()
	doctorOnly.ServeHTTP(rec, asUser(&user.User{ID: uuid.New(), Role: user.RoleDoctor}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	doctorOnly.ServeHTTP(rec, asUser(&user.User{ID: uuid.New(), Role: user.RolePatient}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	doctorOnly.ServeHTTP(rec, asUser(nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBearerTokenHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer lower-case-scheme")
	assert.Equal(t, "lower-case-scheme", bearerToken(req))

	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, "", bearerToken(req))
}
