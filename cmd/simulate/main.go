package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curelink/telemed-backend/internal/auth"
	"github.com/curelink/telemed-backend/internal/config"
	"github.com/curelink/telemed-backend/internal/db"
	"github.com/curelink/telemed-backend/internal/user"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	SlotsRatio   float64
	ReadRatio    float64
	PatientLimit int
	DoctorLimit  int
	PostgresDSN  string
	JWTSecret    string
	JWTTTL       time.Duration
}

type patientEntry struct {
	ID    uuid.UUID
	Token string
}

type doctorEntry struct {
	ProfileID uuid.UUID
	UserID    uuid.UUID
	Token     string
	Windows   []windowEntry
}

type windowEntry struct {
	Weekday  int
	StartMin int
	EndMin   int
}

type bookedAppt struct {
	ID        uuid.UUID
	DoctorIdx int
	Token     string // patient session that created it
}

type DataPool struct {
	Patients []patientEntry
	Doctors  []doctorEntry

	mu           sync.RWMutex
	appointments []bookedAppt
}

func (dp *DataPool) AddAppointment(a bookedAppt) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, a)
}

func (dp *DataPool) RandomAppointment() (bookedAppt, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return bookedAppt{}, false
	}
	return dp.appointments[rand.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking   OperationMetrics
	Confirm   OperationMetrics
	FreeSlots OperationMetrics
	ReadByID  OperationMetrics
	ListMine  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f slots=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.SlotsRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d patients, %d doctors", len(dataPool.Patients), len(dataPool.Doctors))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		SlotsRatio:   getFloat("SIM_SLOTS_RATIO", 0.3),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 2000),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 50),
		PostgresDSN:  baseCfg.PostgresDSN,
		JWTSecret:    baseCfg.JWTSecret,
		JWTTTL:       baseCfg.JWTTTL,
	}

	total := cfg.BookingRatio + cfg.SlotsRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.SlotsRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to mint sessions")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool reads seeded users and verified doctors from Postgres and
// mints session tokens locally so workers can hit authenticated routes.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	now := time.Now()
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM users
		WHERE role = 'patient' AND NOT suspended
		LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		token, err := issuer.Issue(&user.User{ID: id, Role: user.RolePatient}, now)
		if err != nil {
			return nil, fmt.Errorf("mint patient token: %w", err)
		}
		dataPool.Patients = append(dataPool.Patients, patientEntry{ID: id, Token: token})
	}

	rows, err = pool.Query(ctx, `
		SELECT p.id, p.user_id
		FROM doctor_profiles p
		WHERE p.status = 'verified'
		LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d doctorEntry
		if err := rows.Scan(&d.ProfileID, &d.UserID); err != nil {
			return nil, err
		}
		token, err := issuer.Issue(&user.User{ID: d.UserID, Role: user.RoleDoctor}, now)
		if err != nil {
			return nil, fmt.Errorf("mint doctor token: %w", err)
		}
		d.Token = token
		dataPool.Doctors = append(dataPool.Doctors, d)
	}

	for i := range dataPool.Doctors {
		d := &dataPool.Doctors[i]
		wrows, err := pool.Query(ctx, `
			SELECT weekday, start_min, end_min
			FROM availability_windows
			WHERE profile_id = $1
		`, d.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("load windows: %w", err)
		}
		for wrows.Next() {
			var w windowEntry
			if err := wrows.Scan(&w.Weekday, &w.StartMin, &w.EndMin); err != nil {
				wrows.Close()
				return nil, err
			}
			d.Windows = append(d.Windows, w)
		}
		wrows.Close()
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded (run the seed command first)")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no verified doctors loaded (run the seed command first)")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				// Confirm piggybacks on booking traffic so holds get used.
				if rng.Intn(4) == 0 {
					s.doConfirm(ctx, rng)
				} else {
					s.doBooking(ctx, rng)
				}
			case r < s.config.BookingRatio+s.config.SlotsRatio:
				s.doFreeSlots(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doReadByID(ctx, rng)
				} else {
					s.doListMine(ctx, rng)
				}
			}
		}
	}
}

// nextDateFor returns the soonest date on or after today that falls on the
// given weekday, formatted YYYY-MM-DD.
func nextDateFor(weekday int, now time.Time) string {
	delta := (weekday - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, delta).Format("2006-01-02")
}

func clock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	docIdx := rng.Intn(len(s.pool.Doctors))
	doc := s.pool.Doctors[docIdx]
	if len(doc.Windows) == 0 {
		return
	}

	w := doc.Windows[rng.Intn(len(doc.Windows))]
	hours := (w.EndMin - w.StartMin) / 60
	if hours <= 0 {
		return
	}
	startMin := w.StartMin + 60*rng.Intn(hours)

	reqBody := map[string]string{
		"doctor_id":  doc.ProfileID.String(),
		"date":       nextDateFor(w.Weekday, time.Now()),
		"start_time": clock(startMin),
		"type":       "video",
	}
	body, _ := json.Marshal(reqBody)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "POST",
		s.config.APIBaseURL+"/api/v1/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+patient.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &apptResp)
				if apptResp.ID != uuid.Nil {
					s.pool.AddAppointment(bookedAppt{
						ID:        apptResp.ID,
						DoctorIdx: docIdx,
						Token:     patient.Token,
					})
				}
			}
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.pool.RandomAppointment()
	if !ok {
		return
	}
	doc := s.pool.Doctors[appt.DoctorIdx]

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/api/v1/appointments/%s/confirm", s.config.APIBaseURL, appt.ID), nil)
	req.Header.Set("Authorization", "Bearer "+doc.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Confirm.Record(latency, success, conflict)
}

func (s *Simulator) doFreeSlots(ctx context.Context, rng *rand.Rand) {
	doc := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date := time.Now().AddDate(0, 0, rng.Intn(7)).Format("2006-01-02")

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/v1/doctors/%s/slots?date=%s", s.config.APIBaseURL, doc.ProfileID, date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.FreeSlots.Record(latency, success, false)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.pool.RandomAppointment()
	if !ok {
		return
	}

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/v1/appointments/%s", s.config.APIBaseURL, appt.ID), nil)
	req.Header.Set("Authorization", "Bearer "+appt.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doListMine(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "GET",
		s.config.APIBaseURL+"/api/v1/appointments?limit=20&offset=0", nil)
	req.Header.Set("Authorization", "Bearer "+patient.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListMine.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Free slots", &s.metrics.FreeSlots)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List mine", &s.metrics.ListMine)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errors := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errors > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
