package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const userColumns = "id, name, phone, email, role, suspended, created_at, updated_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Phone,
		&u.Email,
		&u.Role,
		&u.Suspended,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE phone = $1
	`, phone)
	return scanUser(row)
}

func (r *PgRepository) Create(ctx context.Context, name, phone string, email *string, role Role) (*User, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, phone, email, role, suspended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, now(), now())
		RETURNING `+userColumns+`
	`, id, name, phone, email, role)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *PgRepository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET suspended = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, suspended)
	return scanUser(row)
}

func (r *PgRepository) List(ctx context.Context, role Role, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(role), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

func (r *PgRepository) CountByRole(ctx context.Context) (map[Role]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, count(*)
		FROM users
		GROUP BY role
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Role]int64)
	for rows.Next() {
		var role Role
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
