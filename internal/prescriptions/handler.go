package prescriptions

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for prescriptions
type Handler struct {
	binder *Binder
	logger *logging.Logger
}

// NewHandler creates a new prescriptions handler
func NewHandler(binder *Binder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{binder: binder, logger: logger}
}

type apiItem struct {
	ID       string `json:"id,omitempty"`
	Medicine string `json:"medicine"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Notes    string `json:"notes,omitempty"`
}

type apiPrescription struct {
	ID           string    `json:"id"`
	VisitID      string    `json:"visit_id"`
	Items        []apiItem `json:"prescription_items"`
	FollowUp     int       `json:"follow_up,omitempty"`
	FollowUpUnit string    `json:"follow_up_unit,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type draftBody struct {
	Items        []apiItem `json:"prescription_items"`
	FollowUp     int       `json:"follow_up,omitempty"`
	FollowUpUnit string    `json:"follow_up_unit,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

func (b *draftBody) toDraft() *Draft {
	meds := make([]Medicine, 0, len(b.Items))
	for _, it := range b.Items {
		meds = append(meds, Medicine{
			ID:       it.ID,
			Name:     it.Medicine,
			Dosage:   it.Dosage,
			Duration: it.Duration,
			Notes:    it.Notes,
		})
	}
	d := &Draft{Medicines: meds, Notes: b.Notes}
	if b.FollowUp != 0 || b.FollowUpUnit != "" {
		d.FollowUp = &FollowUp{Value: b.FollowUp, Unit: FollowUpUnit(b.FollowUpUnit)}
	}
	return d
}

// CreateForVisit handles POST /visits/{id}/prescription
func (h *Handler) CreateForVisit(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	res, err := h.binder.Save(r.Context(), chi.URLParam(r, "id"), body.toDraft())
	if err != nil {
		httpapi.WriteError(w, mapPrescriptionError(err))
		return
	}
	status := http.StatusCreated
	if res.Action == ActionUpdated {
		status = http.StatusOK
	}
	httpapi.WriteJSON(w, status, toAPIPrescription(res.Prescription))
}

// Update handles PUT /visits/prescription/{prescriptionId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	res, err := h.binder.SaveByPrescriptionID(r.Context(), chi.URLParam(r, "prescriptionId"), body.toDraft())
	if err != nil {
		httpapi.WriteError(w, mapPrescriptionError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAPIPrescription(res.Prescription))
}

// Get handles GET /visits/prescription/{prescriptionId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.binder.Get(r.Context(), chi.URLParam(r, "prescriptionId"))
	if err != nil {
		httpapi.WriteError(w, mapPrescriptionError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAPIPrescription(p))
}

func toAPIPrescription(p *Prescription) apiPrescription {
	items := make([]apiItem, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		items = append(items, apiItem{
			ID:       m.ID,
			Medicine: m.Name,
			Dosage:   m.Dosage,
			Duration: m.Duration,
			Notes:    m.Notes,
		})
	}
	out := apiPrescription{
		ID:        p.ID,
		VisitID:   p.VisitID,
		Items:     items,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.FollowUp != nil {
		out.FollowUp = p.FollowUp.Value
		out.FollowUpUnit = string(p.FollowUp.Unit)
	}
	return out
}

func mapPrescriptionError(err error) error {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return httpapi.FieldValidation(vErr.Message, vErr.Fields)
	case errors.Is(err, ErrNoMedicines):
		return httpapi.Validation(err.Error())
	case errors.Is(err, ErrPrescriptionNotFound):
		return httpapi.NotFound("prescription not found")
	case errors.Is(err, visits.ErrVisitNotFound):
		return httpapi.NotFound("visit not found")
	case errors.Is(err, ErrSaveInFlight), errors.Is(err, visits.ErrAlreadyBound):
		return httpapi.Conflict(err.Error())
	}
	return err
}
