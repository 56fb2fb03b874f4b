package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curelink/telemed-backend/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const profileColumns = `id, user_id, specialization, license_number, bio,
	consultation_fee, status, rejection_reason, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Specialization,
		&p.LicenseNumber,
		&p.Bio,
		&p.ConsultationFee,
		&p.Status,
		&p.RejectionReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM doctor_profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

func (r *PgRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM doctor_profiles
		WHERE user_id = $1
	`, userID)
	return scanProfile(row)
}

func (r *PgRepository) CreateProfile(ctx context.Context, p Profile) (*Profile, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_profiles
			(id, user_id, specialization, license_number, bio, consultation_fee,
			 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), now())
		RETURNING `+profileColumns+`
	`, id, p.UserID, p.Specialization, p.LicenseNumber, p.Bio, p.ConsultationFee)

	created, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) ResubmitProfile(ctx context.Context, p Profile) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_profiles
		SET specialization = $2,
		    license_number = $3,
		    bio = $4,
		    consultation_fee = $5,
		    status = 'pending',
		    rejection_reason = NULL,
		    updated_at = now()
		WHERE user_id = $1
		  AND status = 'rejected'
		RETURNING `+profileColumns+`
	`, p.UserID, p.Specialization, p.LicenseNumber, p.Bio, p.ConsultationFee)
	return scanProfile(row)
}

func (r *PgRepository) SetVerification(ctx context.Context, id uuid.UUID, status VerificationStatus, reason *string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_profiles
		SET status = $2,
		    rejection_reason = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns+`
	`, id, status, reason)
	return scanProfile(row)
}

func (r *PgRepository) ListByStatus(ctx context.Context, status VerificationStatus, limit, offset int) ([]ProfileDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.specialization, p.license_number, p.bio,
		       p.consultation_fee, p.status, p.rejection_reason,
		       p.created_at, p.updated_at, u.name
		FROM doctor_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = $1
		  AND NOT u.suspended
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProfileDetail
	for rows.Next() {
		var d ProfileDetail
		err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.Specialization,
			&d.LicenseNumber,
			&d.Bio,
			&d.ConsultationFee,
			&d.Status,
			&d.RejectionReason,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.DoctorName,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*ProfileDetail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.user_id, p.specialization, p.license_number, p.bio,
		       p.consultation_fee, p.status, p.rejection_reason,
		       p.created_at, p.updated_at, u.name
		FROM doctor_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`, id)

	var d ProfileDetail
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Specialization,
		&d.LicenseNumber,
		&d.Bio,
		&d.ConsultationFee,
		&d.Status,
		&d.RejectionReason,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.DoctorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	windows, err := r.GetWindows(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Windows = windows

	return &d, nil
}

func (r *PgRepository) CountByStatus(ctx context.Context) (map[VerificationStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM doctor_profiles
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[VerificationStatus]int64)
	for rows.Next() {
		var status VerificationStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) ReplaceWindows(ctx context.Context, profileID uuid.UUID, windows []schedule.Window) ([]AvailabilityWindow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_windows WHERE profile_id = $1
	`, profileID); err != nil {
		return nil, err
	}

	now := time.Now()
	result := make([]AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		row := AvailabilityWindow{
			ID:        uuid.New(),
			ProfileID: profileID,
			Weekday:   w.Weekday,
			Start:     w.Start,
			End:       w.End,
			CreatedAt: now,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_windows (id, profile_id, weekday, start_min, end_min, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, row.ID, row.ProfileID, int(row.Weekday), int(row.Start), int(row.End), row.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetWindows(ctx context.Context, profileID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, profile_id, weekday, start_min, end_min, created_at
		FROM availability_windows
		WHERE profile_id = $1
		ORDER BY weekday, start_min
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		var w AvailabilityWindow
		var weekday, start, end int
		if err := rows.Scan(&w.ID, &w.ProfileID, &weekday, &start, &end, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		w.Start = schedule.Minute(start)
		w.End = schedule.Minute(end)
		result = append(result, w)
	}
	return result, rows.Err()
}
