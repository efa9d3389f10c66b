package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for terminal visit actions
type Handler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewHandler creates a new delivery handler
func NewHandler(dispatcher *Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

type draftItem struct {
	ID       string `json:"id,omitempty"`
	Medicine string `json:"medicine"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Notes    string `json:"notes,omitempty"`
}

type draftPayload struct {
	Items        []draftItem `json:"prescription_items"`
	FollowUp     int         `json:"follow_up,omitempty"`
	FollowUpUnit string      `json:"follow_up_unit,omitempty"`
	Notes        string      `json:"notes,omitempty"`
}

func (p *draftPayload) toDraft() *prescriptions.Draft {
	meds := make([]prescriptions.Medicine, 0, len(p.Items))
	for _, it := range p.Items {
		meds = append(meds, prescriptions.Medicine{
			ID:       it.ID,
			Name:     it.Medicine,
			Dosage:   it.Dosage,
			Duration: it.Duration,
			Notes:    it.Notes,
		})
	}
	d := &prescriptions.Draft{Medicines: meds, Notes: p.Notes}
	if p.FollowUp != 0 || p.FollowUpUnit != "" {
		d.FollowUp = &prescriptions.FollowUp{Value: p.FollowUp, Unit: prescriptions.FollowUpUnit(p.FollowUpUnit)}
	}
	return d
}

type actionResponse struct {
	VisitID        string         `json:"visit_id"`
	VisitStatus    string         `json:"visit_status"`
	PrescriptionID string         `json:"prescription_id"`
	MessageID      string         `json:"message_id,omitempty"`
	Document       *PrintDocument `json:"document,omitempty"`
}

// Finish handles POST /visits/{id}/finish
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.dispatcher.Finish)
}

// Print handles POST /visits/{id}/print
func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.dispatcher.Print)
}

// SendWhatsApp handles POST /visits/{id}/whatsapp
func (h *Handler) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.dispatcher.SendWhatsApp)
}

// Preview handles GET /visits/{id}/print
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	doc, err := h.dispatcher.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, mapDeliveryError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, visitID string, draft *prescriptions.Draft) (*Result, error)) {
	var body draftPayload
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	res, err := action(r.Context(), chi.URLParam(r, "id"), body.toDraft())
	if err != nil {
		httpapi.WriteError(w, mapDeliveryError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, actionResponse{
		VisitID:        res.Visit.ID,
		VisitStatus:    string(res.Visit.Status),
		PrescriptionID: res.Prescription.ID,
		MessageID:      res.MessageID,
		Document:       res.Document,
	})
}

func mapDeliveryError(err error) error {
	var vErr *prescriptions.ValidationError
	switch {
	case errors.As(err, &vErr):
		return httpapi.FieldValidation(vErr.Message, vErr.Fields)
	case errors.Is(err, prescriptions.ErrNoMedicines):
		return httpapi.Validation(err.Error())
	case errors.Is(err, prescriptions.ErrPrescriptionNotFound):
		return httpapi.NotFound("prescription not found")
	case errors.Is(err, visits.ErrVisitNotFound):
		return httpapi.NotFound("visit not found")
	case errors.Is(err, visits.ErrNotInProgress), errors.Is(err, visits.ErrVisitCompleted):
		return httpapi.Conflict(err.Error())
	case errors.Is(err, visits.ErrPrescriptionNotSaved):
		return httpapi.Validation(err.Error())
	case errors.Is(err, prescriptions.ErrSaveInFlight):
		return httpapi.Conflict(err.Error())
	case errors.Is(err, ErrWhatsAppUnavailable):
		return httpapi.Validation(err.Error())
	case errors.Is(err, ErrDeliveryFailed):
		return httpapi.Upstream(err.Error())
	}
	return err
}
