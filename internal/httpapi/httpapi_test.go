package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusCreated, map[string]string{"id": "p-1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success true")
	}
	if body.Data["id"] != "p-1" {
		t.Errorf("expected data id p-1, got %v", body.Data)
	}
}

func TestWriteErrorTyped(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, FieldValidation("invalid medicine", map[string]string{"medicine_0_dosage": "dosage must be in D-D-D form"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   *Error `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("expected success false")
	}
	if body.Error.Code != CodeFieldValidation {
		t.Errorf("expected %s, got %s", CodeFieldValidation, body.Error.Code)
	}
	if body.Error.Details["medicine_0_dosage"] == "" {
		t.Error("expected positional medicine detail key")
	}
}

func TestWriteErrorWrapped(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, fmt.Errorf("binder: %w", NotFound("visit not found")))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped NOT_FOUND to surface 404, got %d", w.Code)
	}
}

func TestWriteErrorOpaque(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details must not leak to the client")
	}
}

func TestDecodeParseError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))

	var v map[string]any
	err := Decode(req, &v)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeParse {
		t.Fatalf("expected PARSE_ERROR, got %v", err)
	}
}
