package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/config"
	"github.com/curelink/telemed-backend/internal/db"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/payment"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "expiry-worker").Logger()
	logger.Info().Msg("expiry-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("running expiry worker")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	apptRepo := appointment.NewPgRepository(pgPool)
	doctorRepo := doctor.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(apptRepo, doctorRepo, locker, payment.NewOfflineGateway(), cfg.HoldTTL, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.ExpirePending(runCtx); err != nil {
		logger.Error().Err(err).Msg("expiry run error")
		return
	}
	logger.Info().Dur("took", time.Since(start)).Msg("expiry run complete")
}
