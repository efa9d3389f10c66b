package visits

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// MedicineCounter reports how many medicines a saved prescription carries,
// so the handler can derive the progress step without loading the full
// prescription package (and without an import cycle).
type MedicineCounter func(ctx context.Context, prescriptionID string) (int, error)

// Handler handles HTTP requests for visits
type Handler struct {
	service   *Service
	medicines MedicineCounter
	logger    *logging.Logger
}

// NewHandler creates a new visits handler
func NewHandler(service *Service, medicines MedicineCounter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, medicines: medicines, logger: logger}
}

type apiVisit struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	DoctorID       string    `json:"doctor_id,omitempty"`
	Date           time.Time `json:"date"`
	VisitStatus    string    `json:"visit_status"`
	Notes          string    `json:"notes,omitempty"`
	PrescriptionID string    `json:"prescription_id,omitempty"`
	VisitReason    string    `json:"visit_reason,omitempty"`
	Step           int       `json:"step"`
	StepLabel      string    `json:"step_label"`
}

type createVisitBody struct {
	PatientID   string `json:"patient_id"`
	DoctorID    string `json:"doctor_id,omitempty"`
	VisitReason string `json:"visit_reason,omitempty"`
	// Accepted for wire compatibility; the server forces WAITING.
	VisitStatus string `json:"visit_status,omitempty"`
}

type updateStatusBody struct {
	VisitStatus string `json:"visit_status"`
}

type updateNotesBody struct {
	Notes string `json:"notes"`
}

// Create handles POST /visits
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createVisitBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	v, err := h.service.Create(r.Context(), &CreateVisitRequest{
		PatientID:   body.PatientID,
		DoctorID:    body.DoctorID,
		VisitReason: body.VisitReason,
	})
	if err != nil {
		httpapi.WriteError(w, mapVisitError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, h.toAPIVisit(r.Context(), v))
}

// Get handles GET /visits/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, mapVisitError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, h.toAPIVisit(r.Context(), v))
}

// UpdateStatus handles PUT /visits/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body updateStatusBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var v *Visit
	var err error
	switch Status(body.VisitStatus) {
	case StatusInProgress:
		v, err = h.service.Start(r.Context(), id)
	case StatusCompleted:
		v, err = h.service.Complete(r.Context(), id)
	default:
		httpapi.WriteError(w, httpapi.Validation("visit_status must be IN_PROGRESS or COMPLETED"))
		return
	}
	if err != nil {
		httpapi.WriteError(w, mapVisitError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, h.toAPIVisit(r.Context(), v))
}

// UpdateNotes handles PATCH /visits/{id}/notes
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var body updateNotesBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	v, err := h.service.UpdateNotes(r.Context(), chi.URLParam(r, "id"), body.Notes)
	if err != nil {
		httpapi.WriteError(w, mapVisitError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, h.toAPIVisit(r.Context(), v))
}

// List handles GET /visits?patient_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		httpapi.WriteError(w, httpapi.Validation("patient_id is required"))
		return
	}
	vs, err := h.service.ListByPatient(r.Context(), patientID)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, h.toAPIVisits(r.Context(), vs))
}

// Queue handles GET /visits/queue
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	vs, err := h.service.Queue(r.Context())
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, h.toAPIVisits(r.Context(), vs))
}

func (h *Handler) toAPIVisits(ctx context.Context, vs []*Visit) []apiVisit {
	out := make([]apiVisit, 0, len(vs))
	for _, v := range vs {
		out = append(out, h.toAPIVisit(ctx, v))
	}
	return out
}

func (h *Handler) toAPIVisit(ctx context.Context, v *Visit) apiVisit {
	count := 0
	if v.PrescriptionID != "" && h.medicines != nil {
		if c, err := h.medicines(ctx, v.PrescriptionID); err == nil {
			count = c
		} else {
			h.logger.Warn("failed to count medicines for step", "error", err, "visit_id", v.ID)
		}
	}
	step := StepFor(v, count)
	return apiVisit{
		ID:             v.ID,
		PatientID:      v.PatientID,
		DoctorID:       v.DoctorID,
		Date:           v.Date,
		VisitStatus:    string(v.Status),
		Notes:          v.Notes,
		PrescriptionID: v.PrescriptionID,
		VisitReason:    v.VisitReason,
		Step:           int(step),
		StepLabel:      step.Label(),
	}
}

func mapVisitError(err error) error {
	switch {
	case errors.Is(err, ErrPatientRequired):
		return httpapi.FieldValidation(err.Error(), map[string]string{"patient_id": err.Error()})
	case errors.Is(err, ErrVisitNotFound):
		return httpapi.NotFound("visit not found")
	case errors.Is(err, ErrNotWaiting), errors.Is(err, ErrNotInProgress), errors.Is(err, ErrVisitCompleted), errors.Is(err, ErrAlreadyBound):
		return httpapi.Conflict(err.Error())
	case errors.Is(err, ErrPrescriptionNotSaved):
		return httpapi.Validation(err.Error())
	}
	return err
}
