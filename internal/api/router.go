package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/admin"
	"github.com/curelink/telemed-backend/internal/appointment"
	"github.com/curelink/telemed-backend/internal/auth"
	"github.com/curelink/telemed-backend/internal/doctor"
	"github.com/curelink/telemed-backend/internal/notification"
	"github.com/curelink/telemed-backend/internal/user"
)

// Server holds every service the HTTP layer dispatches into.
type Server struct {
	auth         *auth.Service
	doctors      *doctor.Service
	appointments *appointment.Service
	admin        *admin.Service
	mailer       notification.Mailer
	logger       zerolog.Logger
}

type RouterConfig struct {
	Auth          *auth.Service
	Doctors       *doctor.Service
	Appointments  *appointment.Service
	Admin         *admin.Service
	Mailer        notification.Mailer
	Authenticator *Authenticator
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	s := &Server{
		auth:         cfg.Auth,
		doctors:      cfg.Doctors,
		appointments: cfg.Appointments,
		admin:        cfg.Admin,
		mailer:       cfg.Mailer,
		logger:       cfg.Logger.With().Str("component", "api").Logger(),
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/otp/request", s.requestCodeHandler)
		r.Post("/auth/otp/verify", s.verifyCodeHandler)
		r.Get("/doctors", s.listDoctorsHandler)
		r.Get("/doctors/{id}", s.doctorDetailHandler)
		r.Get("/doctors/{id}/slots", s.doctorSlotsHandler)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.RequireUser)

			r.Get("/me", s.meHandler)

			r.Post("/appointments", s.bookAppointmentHandler)
			r.Get("/appointments", s.listAppointmentsHandler)
			r.Get("/appointments/{id}", s.getAppointmentHandler)
			r.Post("/appointments/{id}/cancel", s.cancelAppointmentHandler)
			r.Get("/appointments/{id}/invoice", s.invoiceHandler)
			r.Post("/payments/appointments/{id}/capture", s.capturePaymentHandler)

			// Doctor
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleDoctor))

				r.Post("/doctor/profile", s.submitProfileHandler)
				r.Get("/doctor/profile", s.ownProfileHandler)
				r.Put("/doctor/availability", s.setAvailabilityHandler)
				r.Get("/doctor/availability", s.ownAvailabilityHandler)

				r.Post("/appointments/{id}/confirm", s.confirmAppointmentHandler)
				r.Post("/appointments/{id}/start", s.startVisitHandler)
				r.Post("/appointments/{id}/complete", s.completeVisitHandler)
			})

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(user.RoleAdmin))

				r.Get("/doctors/pending", s.pendingDoctorsHandler)
				r.Patch("/doctors/{id}/verify", s.reviewDoctorHandler)
				r.Get("/users", s.listUsersHandler)
				r.Patch("/users/{id}/suspend", s.suspendUserHandler)
				r.Post("/appointments/{id}/refund", s.refundHandler)
				r.Get("/stats", s.statsHandler)
			})
		})
	})

	return r
}
