package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/user"
)

type fakeCodeStore struct {
	codes  map[string]string
	putErr error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]string)}
}

func (f *fakeCodeStore) Put(_ context.Context, phone, code string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.codes[phone] = code
	return nil
}

func (f *fakeCodeStore) Verify(_ context.Context, phone, code string) error {
	stored, ok := f.codes[phone]
	if !ok {
		return redisclient.ErrCodeNotFound
	}
	if stored != code {
		return redisclient.ErrCodeMismatch
	}
	delete(f.codes, phone)
	return nil
}

type fakeSender struct {
	sent map[string]string
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string]string)}
}

func (f *fakeSender) SendCode(_ context.Context, phone, code string) error {
	f.sent[phone] = code
	return nil
}

type fakeUserRepo struct {
	byPhone map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPhone: make(map[string]*user.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range f.byPhone {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*user.User, error) {
	if u, ok := f.byPhone[phone]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, name, phone string, email *string, role user.Role) (*user.User, error) {
	if _, ok := f.byPhone[phone]; ok {
		return nil, user.ErrPhoneTaken
	}
	u := &user.User{ID: uuid.New(), Name: name, Phone: phone, Email: email, Role: role}
	f.byPhone[phone] = u
	return u, nil
}

func (f *fakeUserRepo) SetSuspended(_ context.Context, id uuid.UUID, suspended bool) (*user.User, error) {
	for _, u := range f.byPhone {
		if u.ID == id {
			u.Suspended = suspended
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context, role user.Role, limit, offset int) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context) (map[user.Role]int64, error) {
	return nil, nil
}

func newOTPService(users *fakeUserRepo, codes *fakeCodeStore, sender *fakeSender) *Service {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	return NewService(users, codes, sender, issuer, zerolog.Nop())
}

const testPhone = "+919812345678"

func TestRequestCodeDelivers(t *testing.T) {
	users := newFakeUserRepo()
	codes := newFakeCodeStore()
	sender := newFakeSender()
	svc := newOTPService(users, codes, sender)

	err := svc.RequestCode(context.Background(), testPhone)
	require.NoError(t, err)

	require.Contains(t, sender.sent, testPhone)
	assert.Len(t, sender.sent[testPhone], 6)
	assert.Equal(t, codes.codes[testPhone], sender.sent[testPhone])
}

func TestRequestCodeBadPhone(t *testing.T) {
	svc := newOTPService(newFakeUserRepo(), newFakeCodeStore(), newFakeSender())

	for _, phone := range []string{"", "12345", "9812345678", "+0123456789", "+91 98123"} {
		err := svc.RequestCode(context.Background(), phone)
		assert.ErrorIs(t, err, ErrBadPhone, "phone=%q", phone)
	}
}

func TestRequestCodeSuspendedAccount(t *testing.T) {
	users := newFakeUserRepo()
	users.byPhone[testPhone] = &user.User{ID: uuid.New(), Phone: testPhone, Role: user.RolePatient, Suspended: true}
	sender := newFakeSender()
	svc := newOTPService(users, newFakeCodeStore(), sender)

	err := svc.RequestCode(context.Background(), testPhone)
	assert.ErrorIs(t, err, ErrSuspended)
	assert.Empty(t, sender.sent)
}

func TestRequestCodeThrottled(t *testing.T) {
	codes := newFakeCodeStore()
	codes.putErr = redisclient.ErrResendTooSoon
	sender := newFakeSender()
	svc := newOTPService(newFakeUserRepo(), codes, sender)

	err := svc.RequestCode(context.Background(), testPhone)
	assert.ErrorIs(t, err, redisclient.ErrResendTooSoon)
	assert.Empty(t, sender.sent)
}

func TestVerifyCodeSignsUpNewPatient(t *testing.T) {
	users := newFakeUserRepo()
	codes := newFakeCodeStore()
	codes.codes[testPhone] = "123456"
	svc := newOTPService(users, codes, newFakeSender())

	sess, err := svc.VerifyCode(context.Background(), VerifyRequest{
		Phone: testPhone,
		Code:  "123456",
		Name:  "Asha Rao",
	})
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, user.RolePatient, sess.User.Role)
	assert.NotEmpty(t, sess.Token)

	claims, err := NewTokenIssuer("test-secret", time.Hour).Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.RolePatient, claims.Role)
}

func TestVerifyCodeExistingUserLogsIn(t *testing.T) {
	users := newFakeUserRepo()
	existing := &user.User{ID: uuid.New(), Name: "Asha Rao", Phone: testPhone, Role: user.RoleDoctor}
	users.byPhone[testPhone] = existing

	codes := newFakeCodeStore()
	codes.codes[testPhone] = "654321"
	svc := newOTPService(users, codes, newFakeSender())

	// Signup fields are ignored for a known phone.
	sess, err := svc.VerifyCode(context.Background(), VerifyRequest{
		Phone: testPhone,
		Code:  "654321",
		Name:  "Someone Else",
		Role:  user.RolePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sess.User.ID)
	assert.Equal(t, user.RoleDoctor, sess.User.Role)
}

func TestVerifyCodeWrongCode(t *testing.T) {
	codes := newFakeCodeStore()
	codes.codes[testPhone] = "123456"
	svc := newOTPService(newFakeUserRepo(), codes, newFakeSender())

	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Phone: testPhone, Code: "000000"})
	assert.ErrorIs(t, err, redisclient.ErrCodeMismatch)
}

func TestVerifyCodeNoPendingCode(t *testing.T) {
	svc := newOTPService(newFakeUserRepo(), newFakeCodeStore(), newFakeSender())

	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Phone: testPhone, Code: "123456"})
	assert.ErrorIs(t, err, redisclient.ErrCodeNotFound)
}

func TestVerifyCodeAdminForbidden(t *testing.T) {
	codes := newFakeCodeStore()
	codes.codes[testPhone] = "123456"
	svc := newOTPService(newFakeUserRepo(), codes, newFakeSender())

	_, err := svc.VerifyCode(context.Background(), VerifyRequest{
		Phone: testPhone,
		Code:  "123456",
		Name:  "Root",
		Role:  user.RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrRoleForbidden)
}

func TestVerifyCodeSignupNeedsName(t *testing.T) {
	codes := newFakeCodeStore()
	codes.codes[testPhone] = "123456"
	svc := newOTPService(newFakeUserRepo(), codes, newFakeSender())

	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Phone: testPhone, Code: "123456"})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestVerifyCodeSuspendedUser(t *testing.T) {
	users := newFakeUserRepo()
	users.byPhone[testPhone] = &user.User{ID: uuid.New(), Phone: testPhone, Role: user.RolePatient, Suspended: true}

	codes := newFakeCodeStore()
	codes.codes[testPhone] = "123456"
	svc := newOTPService(users, codes, newFakeSender())

	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Phone: testPhone, Code: "123456"})
	assert.ErrorIs(t, err, ErrSuspended)
}
