package patients

import (
	"strings"
	"time"
)

// Gender uses the compact single-letter domain form. The API layer maps
// the wire enum MALE|FEMALE to and from these values.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Patient represents a registered patient. Identity key for resolution is
// the normalized mobile number. Patients are immutable in this workflow.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Age       *int      `json:"age,omitempty"`
	Gender    Gender    `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatientRequest represents the request body for registering a patient
type CreatePatientRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Age    *int   `json:"age,omitempty"`
	Gender Gender `json:"gender"`
}

// Validate checks the full registration form. The mobile number is
// normalized in place on success.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	normalized, err := NormalizeMobile(r.Mobile)
	if err != nil {
		return err
	}
	r.Mobile = normalized
	if r.Gender != GenderMale && r.Gender != GenderFemale {
		return ErrGenderRequired
	}
	if r.Age != nil && *r.Age < 0 {
		return ErrInvalidAge
	}
	return nil
}
