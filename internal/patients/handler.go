package patients

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careloop/clinicdesk/internal/httpapi"
	"github.com/careloop/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for patients
type Handler struct {
	repo     Repository
	resolver *Resolver
	logger   *logging.Logger
}

// NewHandler creates a new patients handler
func NewHandler(repo Repository, resolver *Resolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, resolver: resolver, logger: logger}
}

// apiPatient is the wire representation: mobile_number field name and
// MALE|FEMALE gender enum.
type apiPatient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MobileNumber string    `json:"mobile_number"`
	Age          *int      `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type createPatientBody struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number"`
	Age          *int   `json:"age,omitempty"`
	Gender       string `json:"gender"`
}

// Search handles GET /patients/search?query=&limit=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httpapi.WriteError(w, httpapi.Validation("query is required"))
		return
	}
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	matches, err := h.repo.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("patient search failed", "error", err, "query", query)
		httpapi.WriteError(w, err)
		return
	}

	out := make([]apiPatient, 0, len(matches))
	for _, p := range matches {
		out = append(out, toAPIPatient(p))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

// Resolve handles GET /patients/resolve?mobile=
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), r.URL.Query().Get("mobile"))
	if err != nil {
		httpapi.WriteError(w, mapPatientError(err))
		return
	}

	if res.Found != nil {
		found := toAPIPatient(res.Found)
		httpapi.WriteJSON(w, http.StatusOK, map[string]any{"found": found})
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"draft": map[string]string{"mobile_number": res.Draft.Mobile}})
}

// Get handles GET /patients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, mapPatientError(err))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAPIPatient(p))
}

// Create handles POST /patient
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createPatientBody
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	req := &CreatePatientRequest{
		Name:   body.Name,
		Mobile: body.MobileNumber,
		Age:    body.Age,
		Gender: parseWireGender(body.Gender),
	}
	p, err := h.repo.Create(r.Context(), req)
	if err != nil {
		httpapi.WriteError(w, mapPatientError(err))
		return
	}

	h.logger.Info("patient registered", "patient_id", p.ID, "mobile", p.Mobile)
	httpapi.WriteJSON(w, http.StatusCreated, toAPIPatient(p))
}

func toAPIPatient(p *Patient) apiPatient {
	return apiPatient{
		ID:           p.ID,
		Name:         p.Name,
		MobileNumber: p.Mobile,
		Age:          p.Age,
		Gender:       wireGender(p.Gender),
		CreatedAt:    p.CreatedAt,
	}
}

func wireGender(g Gender) string {
	switch g {
	case GenderMale:
		return "MALE"
	case GenderFemale:
		return "FEMALE"
	}
	return ""
}

func parseWireGender(s string) Gender {
	switch s {
	case "MALE":
		return GenderMale
	case "FEMALE":
		return GenderFemale
	}
	return ""
}

func mapPatientError(err error) error {
	switch {
	case errors.Is(err, ErrNameRequired):
		return httpapi.FieldValidation(err.Error(), map[string]string{"name": err.Error()})
	case errors.Is(err, ErrInvalidMobile):
		return httpapi.FieldValidation(err.Error(), map[string]string{"mobile_number": err.Error()})
	case errors.Is(err, ErrGenderRequired):
		return httpapi.FieldValidation(err.Error(), map[string]string{"gender": err.Error()})
	case errors.Is(err, ErrInvalidAge):
		return httpapi.FieldValidation(err.Error(), map[string]string{"age": err.Error()})
	case errors.Is(err, ErrPatientNotFound):
		return httpapi.NotFound("patient not found")
	}
	return err
}
