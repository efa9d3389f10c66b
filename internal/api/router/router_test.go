package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careloop/clinicdesk/internal/appointments"
	"github.com/careloop/clinicdesk/internal/delivery"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/pkg/logging"
)

func newTestRouter(secret string) http.Handler {
	logger := logging.Default()
	patientRepo := patients.NewInMemoryRepository()
	visitRepo := visits.NewInMemoryRepository()
	visitSvc := visits.NewService(visitRepo, logger, nil)
	rxRepo := prescriptions.NewInMemoryRepository(visitRepo)
	binder := prescriptions.NewBinder(rxRepo, visitRepo, nil, logger, nil)
	dispatcher := delivery.NewDispatcher(visitSvc, binder, patientRepo, nil, nil,
		delivery.ClinicInfo{Name: "Sunrise Clinic"}, logger, nil)
	apptSvc := appointments.NewService(appointments.NewInMemoryRepository(), logger)

	return New(&Config{
		Logger:              logger,
		PatientsHandler:     patients.NewHandler(patientRepo, patients.NewResolver(patientRepo, logger), logger),
		VisitsHandler:       visits.NewHandler(visitSvc, binder.MedicineCount, logger),
		PrescriptionHandler: prescriptions.NewHandler(binder, logger),
		DeliveryHandler:     delivery.NewHandler(dispatcher, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		StaffJWTSecret:      secret,
	})
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestVisitLifecycleThroughRouter(t *testing.T) {
	r := newTestRouter("")

	// Register a patient.
	patientBody, _ := json.Marshal(map[string]any{
		"name":          "Asha Rao",
		"mobile_number": "9876543210",
		"gender":        "FEMALE",
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/patient", bytes.NewReader(patientBody)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var patientResp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&patientResp); err != nil {
		t.Fatalf("decode patient: %v", err)
	}

	// Open a visit.
	visitBody, _ := json.Marshal(map[string]any{"patient_id": patientResp.Data.ID})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/visits", bytes.NewReader(visitBody)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create visit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var visitResp struct {
		Data struct {
			ID          string `json:"id"`
			VisitStatus string `json:"visit_status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&visitResp); err != nil {
		t.Fatalf("decode visit: %v", err)
	}
	if visitResp.Data.VisitStatus != "WAITING" {
		t.Fatalf("expected WAITING, got %s", visitResp.Data.VisitStatus)
	}

	// The queue sees it.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visits/queue", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("queue: expected 200, got %d", rec.Code)
	}

	// Start the consultation.
	startBody, _ := json.Marshal(map[string]string{"visit_status": "IN_PROGRESS"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/visits/"+visitResp.Data.ID, bytes.NewReader(startBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Save a prescription through the nested route.
	rxBody, _ := json.Marshal(map[string]any{
		"prescription_items": []map[string]string{
			{"medicine": "Paracetamol", "dosage": "1-0-1", "duration": "5 days"},
		},
	})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/visits/"+visitResp.Data.ID+"/prescription", bytes.NewReader(rxBody)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("save prescription: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Finish the visit.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/visits/"+visitResp.Data.ID+"/finish", bytes.NewReader(rxBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStaffAuthGatesAPI(t *testing.T) {
	r := newTestRouter("secret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visits/queue", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Health stays public.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public health, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter("")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
