package appointments

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type createAppointmentBody struct {
	PatientID   string    `json:"patient_id"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile_number"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
}

type updateAppointmentStatusBody struct {
	Status string `json:"status"`
}

// Create handles POST /appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createAppointmentBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	a, err := h.service.Book(r.Context(), &CreateAppointmentRequest{
		PatientID:   body.PatientID,
		Name:        body.Name,
		Mobile:      body.Mobile,
		DoctorID:    body.DoctorID,
		ScheduledAt: body.ScheduledAt,
		Reason:      body.Reason,
	})
	if err != nil {
		httpapi.WriteError(w, mapAppointmentError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, a)
}

// UpdateStatus handles PUT /appointments/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body updateAppointmentStatusBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	a, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"), Status(body.Status))
	if err != nil {
		httpapi.WriteError(w, mapAppointmentError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, a)
}

// List handles GET /appointments?date=YYYY-MM-DD (defaults to today)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpapi.WriteError(w, httpapi.Validation("date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	as, err := h.service.ListForDay(r.Context(), day)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, as)
}

func mapAppointmentError(err error) error {
	switch {
	case errors.Is(err, ErrNameRequired):
		return httpapi.FieldValidation(err.Error(), map[string]string{"name": err.Error()})
	case errors.Is(err, ErrMobileRequired), errors.Is(err, patients.ErrInvalidMobile):
		return httpapi.FieldValidation(err.Error(), map[string]string{"mobile_number": err.Error()})
	case errors.Is(err, ErrScheduleRequired):
		return httpapi.FieldValidation(err.Error(), map[string]string{"scheduled_at": err.Error()})
	case errors.Is(err, ErrInvalidStatus):
		return httpapi.Validation(err.Error())
	case errors.Is(err, ErrAppointmentNotFound):
		return httpapi.NotFound("appointment not found")
	case errors.Is(err, ErrNotWaiting):
		return httpapi.Conflict(err.Error())
	}
	return err
}
