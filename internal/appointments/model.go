package appointments

import (
	"strings"
	"time"
)

// Status is the appointment lifecycle state. Appointments track the booked
// slot only; checking in does not open a visit.
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusCheckedIn Status = "CHECKED_IN"
	StatusNoShow    Status = "NO_SHOW"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusCheckedIn, StatusNoShow:
		return true
	}
	return false
}

// Appointment is a booked slot. Bookings are taken over the phone, so the
// caller's name and mobile are captured directly; PatientID links the
// record once the caller is registered at the desk.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id,omitempty"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile_number"`
	DoctorID    string    `json:"doctor_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateAppointmentRequest carries the fields needed to book a slot.
// PatientID is optional; unregistered callers book by name and mobile.
type CreateAppointmentRequest struct {
	PatientID   string    `json:"patient_id,omitempty"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile_number"`
	DoctorID    string    `json:"doctor_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// Validate checks required fields. The mobile value is normalized by the
// service, not here.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(r.Mobile) == "" {
		return ErrMobileRequired
	}
	if r.ScheduledAt.IsZero() {
		return ErrScheduleRequired
	}
	return nil
}
