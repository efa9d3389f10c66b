package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinicdesk/internal/visits"
)

func doRequest(h http.HandlerFunc, method, target, visitID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if visitID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", visitID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func validPayload() []byte {
	body, _ := json.Marshal(draftPayload{Items: []draftItem{
		{Medicine: "Paracetamol", Dosage: "1-0-1", Duration: "5 days"},
	}})
	return body
}

func TestFinishEndpoint(t *testing.T) {
	f := newFixture(t)
	handler := NewHandler(f.dispatcher, nil)
	v := f.startVisit(t)

	w := doRequest(handler.Finish, http.MethodPost, "/visits/"+v.ID+"/finish", v.ID, validPayload())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data actionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(visits.StatusCompleted), resp.Data.VisitStatus)
	assert.NotEmpty(t, resp.Data.PrescriptionID)
}

func TestWhatsAppEndpointFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.err = assert.AnError
	handler := NewHandler(f.dispatcher, nil)
	v := f.startVisit(t)

	w := doRequest(handler.SendWhatsApp, http.MethodPost, "/visits/"+v.ID+"/whatsapp", v.ID, validPayload())

	require.Equal(t, http.StatusBadGateway, w.Code)

	current, err := f.visits.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, visits.StatusInProgress, current.Status)
}

func TestPrintEndpointReturnsDocument(t *testing.T) {
	f := newFixture(t)
	handler := NewHandler(f.dispatcher, nil)
	v := f.startVisit(t)

	w := doRequest(handler.Print, http.MethodPost, "/visits/"+v.ID+"/print", v.ID, validPayload())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data actionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Data.Document)
	assert.Equal(t, "Sunrise Clinic", resp.Data.Document.ClinicName)
}

func TestPreviewEndpointMissingPrescription(t *testing.T) {
	f := newFixture(t)
	handler := NewHandler(f.dispatcher, nil)
	v := f.startVisit(t)

	w := doRequest(handler.Preview, http.MethodGet, "/visits/"+v.ID+"/print", v.ID, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinishEndpointMissingVisit(t *testing.T) {
	f := newFixture(t)
	handler := NewHandler(f.dispatcher, nil)

	w := doRequest(handler.Finish, http.MethodPost, "/visits/missing/finish", "missing", validPayload())

	require.Equal(t, http.StatusNotFound, w.Code)
}
