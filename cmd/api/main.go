package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/careloop/clinicdesk/internal/api/router"
	"github.com/careloop/clinicdesk/internal/appointments"
	appconfig "github.com/careloop/clinicdesk/internal/config"
	"github.com/careloop/clinicdesk/internal/delivery"
	"github.com/careloop/clinicdesk/internal/notify"
	"github.com/careloop/clinicdesk/internal/observability/metrics"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/internal/whatsapp"
	"github.com/careloop/clinicdesk/pkg/logging"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinicdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Repositories: Postgres when configured, in-memory otherwise
	// (development mode).
	var (
		patientRepo patients.Repository
		visitRepo   visits.Repository
		rxRepo      prescriptions.Repository
		apptRepo    appointments.Repository
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		if err := db.PingContext(context.Background()); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		patientRepo = patients.NewPostgresRepository(db)
		visitRepo = visits.NewPostgresRepository(db)
		rxRepo = prescriptions.NewPostgresRepository(db)
		apptRepo = appointments.NewPostgresRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		memVisits := visits.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		visitRepo = memVisits
		rxRepo = prescriptions.NewInMemoryRepository(memVisits)
		apptRepo = appointments.NewInMemoryRepository()
	}

	// Redis-backed save guard, optional.
	var guard *prescriptions.SaveGuard
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		guard = prescriptions.NewSaveGuard(redisClient, cfg.SaveGuardTTL, logger)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	// Services
	visitSvc := visits.NewService(visitRepo, logger, workflowMetrics)
	binder := prescriptions.NewBinder(rxRepo, visitRepo, guard, logger, workflowMetrics)
	apptSvc := appointments.NewService(apptRepo, logger)

	// WhatsApp delivery, optional.
	var sender delivery.PrescriptionSender
	if cfg.WhatsAppAPIKey != "" {
		waClient, err := whatsapp.New(whatsapp.Config{
			BaseURL:    cfg.WhatsAppBaseURL,
			APIKey:     cfg.WhatsAppAPIKey,
			Timeout:    cfg.WhatsAppTimeout,
			MaxRetries: cfg.WhatsAppMaxRetries,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("failed to configure whatsapp client", "error", err)
			os.Exit(1)
		}
		sender = waClient
	}

	// Completion notifications, optional.
	var notifier *notify.Service
	if emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); emailSender != nil {
		notifier = notify.NewService(emailSender, notify.Config{
			Enabled:    cfg.NotifyOnCompletion,
			Recipients: cfg.NotifyRecipients,
			ClinicName: cfg.ClinicName,
		}, logger)
	}

	dispatcher := delivery.NewDispatcher(visitSvc, binder, patientRepo, sender, notifier,
		delivery.ClinicInfo{
			Name:    cfg.ClinicName,
			Address: cfg.ClinicAddress,
			Doctor:  cfg.DoctorName,
		}, logger, workflowMetrics)

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		PatientsHandler:     patients.NewHandler(patientRepo, patients.NewResolver(patientRepo, logger), logger),
		VisitsHandler:       visits.NewHandler(visitSvc, binder.MedicineCount, logger),
		PrescriptionHandler: prescriptions.NewHandler(binder, logger),
		DeliveryHandler:     delivery.NewHandler(dispatcher, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		StaffJWTSecret:      cfg.StaffJWTSecret,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		SearchRateLimit:     10,
		SearchBurst:         30,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
