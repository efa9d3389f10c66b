package visits

import (
	"strings"
	"time"
)

// Status is the visit lifecycle state: WAITING → IN_PROGRESS → COMPLETED.
// Visits are never deleted; they are append-only history per patient.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is a known visit status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Visit represents a single clinic encounter. PrescriptionID is set if and
// only if a prescription has been saved at least once for this visit; it is
// the sole discriminator for create-vs-update on save.
type Visit struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	DoctorID       string    `json:"doctor_id,omitempty"`
	Date           time.Time `json:"date"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	PrescriptionID string    `json:"prescription_id,omitempty"`
	VisitReason    string    `json:"visit_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateVisitRequest represents the request to open a new visit.
type CreateVisitRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id,omitempty"`
	VisitReason string    `json:"visit_reason,omitempty"`
	Date        time.Time `json:"date,omitempty"`
}

// Validate checks the request.
func (r *CreateVisitRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrPatientRequired
	}
	return nil
}
