package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/careloop/clinicdesk/internal/appointments"
	"github.com/careloop/clinicdesk/internal/delivery"
	httpmiddleware "github.com/careloop/clinicdesk/internal/http/middleware"
	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	PatientsHandler     *patients.Handler
	VisitsHandler       *visits.Handler
	PrescriptionHandler *prescriptions.Handler
	DeliveryHandler     *delivery.Handler
	AppointmentsHandler *appointments.Handler
	StaffJWTSecret      string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// SearchRateLimit caps patient-search requests per second per IP; the
	// front desk fires one per keystroke. Zero disables the limiter.
	SearchRateLimit float64
	SearchBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Staff-facing API, JWT-gated when a secret is configured
	r.Group(func(staff chi.Router) {
		if cfg.StaffJWTSecret != "" {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffJWTSecret))
		}

		if cfg.PatientsHandler != nil {
			staff.Route("/patients", func(r chi.Router) {
				if cfg.SearchRateLimit > 0 {
					r.With(httpmiddleware.RateLimit(cfg.SearchRateLimit, cfg.SearchBurst)).
						Get("/search", cfg.PatientsHandler.Search)
				} else {
					r.Get("/search", cfg.PatientsHandler.Search)
				}
				r.Get("/resolve", cfg.PatientsHandler.Resolve)
				r.Get("/{id}", cfg.PatientsHandler.Get)
			})
			staff.Post("/patient", cfg.PatientsHandler.Create)
		}

		if cfg.VisitsHandler != nil {
			staff.Route("/visits", func(r chi.Router) {
				r.Post("/", cfg.VisitsHandler.Create)
				r.Get("/", cfg.VisitsHandler.List)
				r.Get("/queue", cfg.VisitsHandler.Queue)

				if cfg.PrescriptionHandler != nil {
					r.Route("/prescription/{prescriptionId}", func(r chi.Router) {
						r.Get("/", cfg.PrescriptionHandler.Get)
						r.Put("/", cfg.PrescriptionHandler.Update)
					})
				}

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.VisitsHandler.Get)
					r.Put("/", cfg.VisitsHandler.UpdateStatus)
					r.Patch("/notes", cfg.VisitsHandler.UpdateNotes)

					if cfg.PrescriptionHandler != nil {
						r.Post("/prescription", cfg.PrescriptionHandler.CreateForVisit)
					}
					if cfg.DeliveryHandler != nil {
						r.Post("/finish", cfg.DeliveryHandler.Finish)
						r.Post("/print", cfg.DeliveryHandler.Print)
						r.Get("/print", cfg.DeliveryHandler.Preview)
						r.Post("/whatsapp", cfg.DeliveryHandler.SendWhatsApp)
					}
				})
			})
		}

		if cfg.AppointmentsHandler != nil {
			staff.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Put("/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
