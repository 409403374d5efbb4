package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frontier912/pulsewatch/internal/config"
	"github.com/frontier912/pulsewatch/internal/handlers"
	"github.com/frontier912/pulsewatch/internal/middleware"
	"github.com/frontier912/pulsewatch/internal/notify"
	"github.com/frontier912/pulsewatch/internal/repo"
	"github.com/frontier912/pulsewatch/internal/sweeper"
)

// newSweeper builds a sweeper with webhook fan-out on top of the given DB.
func newSweeper(db *sql.DB) *sweeper.Sweeper {
	dispatcher := notify.NewDispatcher(notify.NewWebhookNotifier())
	return sweeper.New(repo.NewMonitorRepo(db), repo.NewAlertRepo(db), repo.NewTeamRepo(db), dispatcher)
}

// newRouter wires repos, handlers, and middleware into the API router. The
// sweeper is shared with the background runner so shutdown can drain one
// dispatcher for both paths.
func newRouter(db *sql.DB, cfg config.Config, sw *sweeper.Sweeper) chi.Router {
	monitorRepo := repo.NewMonitorRepo(db)
	alertRepo := repo.NewAlertRepo(db)
	teamRepo := repo.NewTeamRepo(db)
	userRepo := repo.NewUserRepo(db)
	auditRepo := repo.NewAuditRepo(db)

	authH := &handlers.AuthHandler{UserRepo: userRepo, Secret: []byte(cfg.JWTSecret), JWTExpireHours: cfg.JWTExpireHours}
	monitorH := &handlers.MonitorHandler{Repo: monitorRepo, Audit: auditRepo}
	checkinH := &handlers.CheckinHandler{Repo: monitorRepo}
	alertH := &handlers.AlertHandler{Repo: alertRepo, Audit: auditRepo}
	teamH := &handlers.TeamHandler{Repo: teamRepo}
	userH := &handlers.UserHandler{Repo: userRepo, Audit: auditRepo}
	sweepH := &handlers.SweepHandler{Sweeper: sw}
	auditH := &handlers.AuditHandler{Repo: auditRepo}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	// Heartbeat endpoint. Token-addressed, no JWT: jobs curl it from cron
	// lines and CI steps. GET is allowed alongside POST for the same reason.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CheckinRateLimiter().Middleware)
		r.Post("/ping/{token}", checkinH.Checkin)
		r.Get("/ping/{token}", checkinH.Checkin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.JWT([]byte(cfg.JWTSecret)))

		r.Route("/monitors", func(r chi.Router) {
			r.Get("/", monitorH.ListMonitors)
			r.Post("/", monitorH.CreateMonitor)
			r.Get("/{id}", monitorH.GetMonitor)
			r.Put("/{id}", monitorH.UpdateMonitor)
			r.Delete("/{id}", monitorH.DeleteMonitor)
			r.Post("/{id}/pause", monitorH.PauseMonitor)
			r.Post("/{id}/resume", monitorH.ResumeMonitor)
			r.Post("/{id}/silence", monitorH.SilenceMonitor)
			r.Get("/{id}/alerts", alertH.ListMonitorAlerts)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertH.ListAlerts)
			r.Post("/{id}/ack", alertH.AcknowledgeAlert)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamH.ListTeams)
			r.Post("/", teamH.CreateTeam)
			r.Get("/{id}", teamH.GetTeam)
			r.Delete("/{id}", teamH.DeleteTeam)
			r.Get("/{id}/members", teamH.ListMembers)
			r.Post("/{id}/members", teamH.AddMember)
			r.Delete("/{id}/members/{userID}", teamH.RemoveMember)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userH.ListUsers)
			r.Get("/{id}", userH.GetUser)
			r.Put("/{id}", userH.UpdateUser)
			r.Delete("/{id}", userH.DeleteUser)
		})

		r.Post("/sweep", sweepH.RunSweep)
		r.Get("/audit", auditH.ListAudit)
	})

	return r
}
