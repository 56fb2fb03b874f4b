package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/admin"
	"github.com/curelink/telemed-backend/internal/api"
	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/auth"
	"github.com/curelink/telemed-backend/internal/config"
	"github.com/curelink/telemed-backend/internal/db"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/notification"
	"github.com/curelink/telemed-backend/internal/payment"
	redisclient "github.com/curelink/telemed-backend/internal/redis"
	"github.com/curelink/telemed-backend/internal/user"
)

var version = "dev"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

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

	if err := db.RunMigrations(rootCtx, pgPool); err != nil {
		logger.Fatal().Err(err).Msg("migration error")
	}

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

	// Repositories
	userRepo := user.NewPgRepository(pgPool)
	doctorRepo := doctor.NewPgRepository(pgPool)
	apptRepo := appointment.NewPgRepository(pgPool)

	// Outbound integrations fall back to dev implementations when the
	// credentials are absent.
	var sender auth.CodeSender
	if cfg.TwilioEnabled() {
		sender = auth.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	} else {
		logger.Warn().Msg("twilio not configured, using log sender")
		sender = auth.NewLogSender(logger)
	}

	var gateway payment.Gateway
	if cfg.RazorpayEnabled() {
		gateway = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		logger.Warn().Msg("razorpay not configured, using offline gateway")
		gateway = payment.NewOfflineGateway()
	}

	var mailer notification.Mailer
	if cfg.SMTPEnabled() {
		mailer = notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		logger.Warn().Msg("smtp not configured, using log mailer")
		mailer = notification.NewLogMailer(logger)
	}

	// Services
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	codes := redisclient.NewCodeStore(rdb, cfg.OTPTTL, cfg.OTPResendAfter)
	authSvc := auth.NewService(userRepo, codes, sender, issuer, logger)
	doctorSvc := doctor.NewService(doctorRepo)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	apptSvc := appointment.NewService(apptRepo, doctorRepo, locker, gateway, cfg.HoldTTL, logger)
	revoker := redisclient.NewSessionRevoker(rdb, cfg.JWTTTL)
	adminSvc := admin.NewService(userRepo, doctorRepo, apptSvc, apptRepo, revoker, logger)

	router := api.NewRouter(api.RouterConfig{
		Auth:          authSvc,
		Doctors:       doctorSvc,
		Appointments:  apptSvc,
		Admin:         adminSvc,
		Mailer:        mailer,
		Authenticator: api.NewAuthenticator(issuer, userRepo, revoker),
		PgPool:        pgPool,
		Redis:         rdb,
		Logger:        logger,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
