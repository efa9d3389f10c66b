package prescriptions

import "errors"

var (
	// ErrNoMedicines is returned when filtering leaves no medicines to save
	ErrNoMedicines = errors.New("at least one medicine is required")

	// ErrPrescriptionNotFound is returned when a prescription lookup misses
	ErrPrescriptionNotFound = errors.New("prescription not found")

	// ErrSaveInFlight is returned when a save for the same visit is already running
	ErrSaveInFlight = errors.New("a prescription save for this visit is already in progress")
)

// FieldErrors maps field paths to messages, using positional
// medicine_<index>_<field> keys for line items.
type FieldErrors map[string]string

// ValidationError carries per-field rejection details.
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Message
}
