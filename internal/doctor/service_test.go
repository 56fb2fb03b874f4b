package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelink/telemed-backend/internal/schedule"
)

// fakeRepo keeps profiles and windows in memory.
type fakeRepo struct {
	byID     map[uuid.UUID]*Profile
	byUserID map[uuid.UUID]*Profile
	windows  map[uuid.UUID][]AvailabilityWindow
	details  map[uuid.UUID]*ProfileDetail
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:     make(map[uuid.UUID]*Profile),
		byUserID: make(map[uuid.UUID]*Profile),
		windows:  make(map[uuid.UUID][]AvailabilityWindow),
		details:  make(map[uuid.UUID]*ProfileDetail),
	}
}

func (f *fakeRepo) add(p *Profile) {
	f.byID[p.ID] = p
	f.byUserID[p.UserID] = p
}

func (f *fakeRepo) GetProfileByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, ErrProfileNotFound
}

func (f *fakeRepo) GetProfileByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	if p, ok := f.byUserID[userID]; ok {
		return p, nil
	}
	return nil, ErrProfileNotFound
}

func (f *fakeRepo) CreateProfile(_ context.Context, p Profile) (*Profile, error) {
	p.ID = uuid.New()
	p.Status = StatusPending
	f.add(&p)
	return &p, nil
}

func (f *fakeRepo) ResubmitProfile(_ context.Context, p Profile) (*Profile, error) {
	existing := f.byUserID[p.UserID]
	existing.Specialization = p.Specialization
	existing.LicenseNumber = p.LicenseNumber
	existing.Bio = p.Bio
	existing.ConsultationFee = p.ConsultationFee
	existing.Status = StatusPending
	existing.RejectionReason = nil
	return existing, nil
}

func (f *fakeRepo) SetVerification(_ context.Context, id uuid.UUID, status VerificationStatus, reason *string) (*Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.Status = status
	p.RejectionReason = reason
	return p, nil
}

func (f *fakeRepo) ListByStatus(_ context.Context, status VerificationStatus, limit, offset int) ([]ProfileDetail, error) {
	var out []ProfileDetail
	for _, d := range f.details {
		if d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetDetail(_ context.Context, id uuid.UUID) (*ProfileDetail, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, ErrProfileNotFound
}

func (f *fakeRepo) CountByStatus(_ context.Context) (map[VerificationStatus]int64, error) {
	return nil, nil
}

func (f *fakeRepo) ReplaceWindows(_ context.Context, profileID uuid.UUID, windows []schedule.Window) ([]AvailabilityWindow, error) {
	rows := make([]AvailabilityWindow, len(windows))
	for i, w := range windows {
		rows[i] = AvailabilityWindow{
			ID:        uuid.New(),
			ProfileID: profileID,
			Weekday:   w.Weekday,
			Start:     w.Start,
			End:       w.End,
		}
	}
	f.windows[profileID] = rows
	return rows, nil
}

func (f *fakeRepo) GetWindows(_ context.Context, profileID uuid.UUID) ([]AvailabilityWindow, error) {
	return f.windows[profileID], nil
}

func validSubmission(userID uuid.UUID) Profile {
	return Profile{
		UserID:          userID,
		Specialization:  "Cardiology",
		LicenseNumber:   "MCI-123456",
		ConsultationFee: 80000,
	}
}

func TestSubmitProfile(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	userID := uuid.New()

	p, err := svc.SubmitProfile(context.Background(), validSubmission(userID))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)

	// A second submission while the first is pending is refused.
	_, err = svc.SubmitProfile(context.Background(), validSubmission(userID))
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestSubmitProfileValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	userID := uuid.New()

	p := validSubmission(userID)
	p.Specialization = ""
	_, err := svc.SubmitProfile(context.Background(), p)
	assert.ErrorIs(t, err, ErrEmptyFields)

	p = validSubmission(userID)
	p.LicenseNumber = ""
	_, err = svc.SubmitProfile(context.Background(), p)
	assert.ErrorIs(t, err, ErrEmptyFields)

	p = validSubmission(userID)
	p.ConsultationFee = 0
	_, err = svc.SubmitProfile(context.Background(), p)
	assert.ErrorIs(t, err, ErrBadFee)
}

func TestResubmitAfterRejection(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	userID := uuid.New()

	first, err := svc.SubmitProfile(context.Background(), validSubmission(userID))
	require.NoError(t, err)

	reason := "license could not be verified"
	_, err = repo.SetVerification(context.Background(), first.ID, StatusRejected, &reason)
	require.NoError(t, err)

	resubmitted := validSubmission(userID)
	resubmitted.LicenseNumber = "MCI-654321"
	p, err := svc.SubmitProfile(context.Background(), resubmitted)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "MCI-654321", p.LicenseNumber)
	assert.Nil(t, p.RejectionReason)
}

func TestSetAvailability(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	userID := uuid.New()
	profile := &Profile{ID: uuid.New(), UserID: userID, Status: StatusVerified}
	repo.add(profile)

	windows := []schedule.Window{
		{Weekday: time.Monday, Start: 9 * 60, End: 13 * 60},
		{Weekday: time.Monday, Start: 17 * 60, End: 20 * 60},
		{Weekday: time.Wednesday, Start: 9 * 60, End: 12 * 60},
	}

	rows, err := svc.SetAvailability(context.Background(), userID, windows)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	stored, err := svc.Availability(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestSetAvailabilityUnverified(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	userID := uuid.New()
	repo.add(&Profile{ID: uuid.New(), UserID: userID, Status: StatusPending})

	_, err := svc.SetAvailability(context.Background(), userID, []schedule.Window{
		{Weekday: time.Monday, Start: 9 * 60, End: 13 * 60},
	})
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestSetAvailabilityRejectsBadWindows(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	userID := uuid.New()
	repo.add(&Profile{ID: uuid.New(), UserID: userID, Status: StatusVerified})

	// Inverted range.
	_, err := svc.SetAvailability(context.Background(), userID, []schedule.Window{
		{Weekday: time.Monday, Start: 13 * 60, End: 9 * 60},
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidWindow)

	// Same-day overlap.
	_, err = svc.SetAvailability(context.Background(), userID, []schedule.Window{
		{Weekday: time.Monday, Start: 9 * 60, End: 13 * 60},
		{Weekday: time.Monday, Start: 12 * 60, End: 15 * 60},
	})
	assert.ErrorIs(t, err, schedule.ErrWindowOverlap)
}

func TestPublicDetailHidesUnverified(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	verified := &ProfileDetail{
		Profile:    Profile{ID: uuid.New(), Status: StatusVerified},
		DoctorName: "Dr. Mehta",
	}
	pending := &ProfileDetail{
		Profile:    Profile{ID: uuid.New(), Status: StatusPending},
		DoctorName: "Dr. Iyer",
	}
	repo.details[verified.ID] = verified
	repo.details[pending.ID] = pending

	got, err := svc.PublicDetail(context.Background(), verified.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Mehta", got.DoctorName)

	_, err = svc.PublicDetail(context.Background(), pending.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
