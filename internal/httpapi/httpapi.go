package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error codes shared across the API surface.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeFieldValidation = "FIELD_VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeParse           = "PARSE_ERROR"
	CodeNetwork         = "NETWORK_ERROR"
	CodeHTTP            = "HTTP_ERROR"
)

// Error is the typed API error carried inside the response envelope.
// Details maps field paths (including positional medicine_<index>_<field>
// keys) to human-readable messages.
type Error struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Validation is a client-detectable error; no state was changed.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, StatusCode: http.StatusBadRequest}
}

// FieldValidation rejects specific fields, mapped by field path.
func FieldValidation(message string, details map[string]string) *Error {
	return &Error{Code: CodeFieldValidation, Message: message, StatusCode: http.StatusBadRequest, Details: details}
}

// NotFound marks a missing patient/visit/prescription.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, StatusCode: http.StatusNotFound}
}

// Conflict marks a state-transition or concurrency violation.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message, StatusCode: http.StatusConflict}
}

// Upstream marks a failed call to an external collaborator.
func Upstream(message string) *Error {
	return &Error{Code: CodeNetwork, Message: message, StatusCode: http.StatusBadGateway}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// WriteError writes an error envelope. Unrecognized errors become a
// generic HTTP_ERROR so internals never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Code: CodeHTTP, Message: "internal server error", StatusCode: http.StatusInternalServerError}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: apiErr})
}

// Decode parses a JSON request body, returning a PARSE_ERROR on failure.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &Error{Code: CodeParse, Message: "malformed request body", StatusCode: http.StatusBadRequest}
	}
	return nil
}
