package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelink/telemed-backend/internal/user"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Role: user.RoleDoctor}

	token, err := issuer.Issue(u, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.RoleDoctor, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestParseExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Role: user.RolePatient}

	token, err := issuer.Issue(u, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Role: user.RolePatient}

	token, err := issuer.Issue(u, time.Now())
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Parse(raw)
		assert.ErrorIs(t, err, ErrBadToken, "raw=%q", raw)
	}
}
