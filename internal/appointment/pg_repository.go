package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curelink/telemed-backend/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const apptColumns = `id, patient_id, profile_id, visit_date, start_min, end_min,
	visit_type, status, payment_status, amount, payment_order_id, symptoms,
	notes, expires_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end int

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProfileID,
		&a.VisitDate,
		&start,
		&end,
		&a.VisitType,
		&a.Status,
		&a.PaymentStatus,
		&a.Amount,
		&a.PaymentOrderID,
		&a.Symptoms,
		&a.Notes,
		&a.ExpiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Start = schedule.Minute(start)
	a.End = schedule.Minute(end)
	return &a, nil
}

const detailColumns = `a.id, a.patient_id, a.profile_id, a.visit_date, a.start_min,
	a.end_min, a.visit_type, a.status, a.payment_status, a.amount,
	a.payment_order_id, a.symptoms, a.notes, a.expires_at, a.created_at,
	a.updated_at, pu.name, pu.email, du.name, p.specialization`

const detailJoins = `
	FROM appointments a
	JOIN users pu ON pu.id = a.patient_id
	JOIN doctor_profiles p ON p.id = a.profile_id
	JOIN users du ON du.id = p.user_id`

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var start, end int

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.ProfileID,
		&d.VisitDate,
		&start,
		&end,
		&d.VisitType,
		&d.Status,
		&d.PaymentStatus,
		&d.Amount,
		&d.PaymentOrderID,
		&d.Symptoms,
		&d.Notes,
		&d.ExpiresAt,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.PatientEmail,
		&d.DoctorName,
		&d.Specialization,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	d.Start = schedule.Minute(start)
	d.End = schedule.Minute(end)
	return &d, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+detailColumns+detailJoins+`
		WHERE a.id = $1
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) GetActiveForSlot(ctx context.Context, profileID uuid.UUID, date time.Time, start schedule.Minute) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE profile_id = $1
		  AND visit_date = $2
		  AND start_min = $3
		  AND status NOT IN ('cancelled', 'expired')
		LIMIT 1
	`, profileID, date, int(start))
	return scanAppointment(row)
}

func (r *PgRepository) TakenStarts(ctx context.Context, profileID uuid.UUID, date time.Time) ([]schedule.Minute, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_min
		FROM appointments
		WHERE profile_id = $1
		  AND visit_date = $2
		  AND status NOT IN ('cancelled', 'expired')
	`, profileID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.Minute
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		result = append(result, schedule.Minute(m))
	}
	return result, rows.Err()
}

func (r *PgRepository) CreatePending(ctx context.Context, a Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, profile_id, visit_date, start_min, end_min,
			 visit_type, status, payment_status, amount, symptoms, expires_at,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 'pending', $8, $9, $10, now(), now())
		RETURNING `+apptColumns+`
	`, id, a.PatientID, a.ProfileID, a.VisitDate, int(a.Start), int(a.End),
		a.VisitType, a.Amount, a.Symptoms, a.ExpiresAt)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+apptColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('completed', 'cancelled', 'expired')
		RETURNING `+apptColumns+`
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment_order_id = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+apptColumns+`
	`, id, orderID)
	return scanAppointment(row)
}

func (r *PgRepository) SetPayment(ctx context.Context, id uuid.UUID, from, to PaymentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment_status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND payment_status = $3
		RETURNING `+apptColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+detailJoins+`
		WHERE a.patient_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *PgRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+detailJoins+`
		WHERE a.profile_id = $1
		ORDER BY a.visit_date DESC, a.start_min DESC
		LIMIT $2 OFFSET $3
	`, profileID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]Detail, error) {
	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int64)
	for rows.Next() {
		var status Status
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) PaidRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(amount), 0)
		FROM appointments
		WHERE payment_status = 'paid'
	`).Scan(&total)
	return total, err
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	var appID *uuid.UUID
	if ev.AppointmentID != nil {
		appID = ev.AppointmentID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, appID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
