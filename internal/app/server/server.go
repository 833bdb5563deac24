package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/domain/audit"
	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/directory"
	"timesheet/internal/domain/export"
	"timesheet/internal/domain/reports"
	"timesheet/internal/domain/settings"
	"timesheet/internal/domain/timesheet"
	"timesheet/internal/platform/config"
	"timesheet/internal/platform/db"
	"timesheet/internal/platform/metrics"
	audithandler "timesheet/internal/transport/http/handlers/audit"
	authhandler "timesheet/internal/transport/http/handlers/auth"
	directoryhandler "timesheet/internal/transport/http/handlers/directory"
	entrieshandler "timesheet/internal/transport/http/handlers/entries"
	exporthandler "timesheet/internal/transport/http/handlers/export"
	reportshandler "timesheet/internal/transport/http/handlers/reports"
	settingshandler "timesheet/internal/transport/http/handlers/settings"
	"timesheet/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New connects storage, runs migrations and seeding when enabled, and
// assembles the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	app := &App{Config: cfg, DB: pool}
	app.Router = app.buildRouter()
	return app, nil
}

func (a *App) buildRouter() http.Handler {
	cfg := a.Config
	pool := a.DB

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	auditSvc := audit.New(pool)
	settingsSvc := settings.New(pool)
	entriesSvc := timesheet.NewService(timesheet.NewStore(pool), settingsSvc, auditSvc)
	directorySvc := directory.NewService(directory.NewStore(pool), auditSvc)
	reportsSvc := reports.NewService(reports.NewStore(pool), settingsSvc)
	exportSvc := export.NewService(export.NewStore(pool), settingsSvc, auditSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(auth.NewStore(pool), cfg.JWTSecret, auditSvc).RegisterRoutes(r)
		entrieshandler.NewHandler(entriesSvc).RegisterRoutes(r)
		directoryhandler.NewHandler(directorySvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		settingshandler.NewHandler(settingsSvc, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
		exporthandler.NewHandler(exportSvc).RegisterRoutes(r)
	})

	return router
}

func (a *App) Close() {
	a.DB.Close()
}

// Run builds the app from the environment and serves until the listener
// fails.
func Run() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("timesheet server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
