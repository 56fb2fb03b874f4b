package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curelink/telemed-backend/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, phone, email, role, suspended, created_at, updated_at)
		VALUES ($1, 'Platform Admin', '+910000000001', 'admin@curelink.local', 'admin', false, now(), now())
		ON CONFLICT (phone) DO NOTHING
	`, uuid.New())
	return err
}

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	for i := 0; i < count; i++ {
		userID := uuid.New()
		profileID := uuid.New()
		phone := gofakeit.Numerify("+9198########")

		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, phone, email, role, suspended, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'doctor', false, now(), now())
			ON CONFLICT (phone) DO NOTHING
		`, userID, "Dr. "+gofakeit.Name(), phone, gofakeit.Email())
		if err != nil {
			return err
		}

		fee := int64(gofakeit.Number(300, 2000)) * 100
		_, err = pool.Exec(ctx, `
			INSERT INTO doctor_profiles
				(id, user_id, specialization, license_number, bio, consultation_fee,
				 status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'verified', now(), now())
			ON CONFLICT (user_id) DO NOTHING
		`, profileID, userID,
			specializations[gofakeit.Number(0, len(specializations)-1)],
			gofakeit.Numerify("MCI-######"),
			gofakeit.Sentence(12),
			fee)
		if err != nil {
			return err
		}

		// Weekday mornings plus alternate-day evenings.
		for weekday := 1; weekday <= 5; weekday++ {
			if err := insertWindow(ctx, pool, profileID, weekday, 9*60, 13*60); err != nil {
				return err
			}
			if weekday%2 == 1 {
				if err := insertWindow(ctx, pool, profileID, weekday, 17*60, 20*60); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func insertWindow(ctx context.Context, pool *pgxpool.Pool, profileID uuid.UUID, weekday, start, end int) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO availability_windows (id, profile_id, weekday, start_min, end_min, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, uuid.New(), profileID, weekday, start, end)
	return err
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, phone, email, role, suspended, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'patient', false, now(), now())
			ON CONFLICT (phone) DO NOTHING
		`, uuid.New(), gofakeit.Name(), gofakeit.Numerify("+9197########"), gofakeit.Email())
		if err != nil {
			return err
		}
	}
	return nil
}
