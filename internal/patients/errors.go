package patients

import "errors"

var (
	// ErrNameRequired is returned when the patient name is blank
	ErrNameRequired = errors.New("name is required")

	// ErrInvalidMobile is returned when the mobile number fails the regional rule
	ErrInvalidMobile = errors.New("mobile must be a 10 digit number starting with 6-9")

	// ErrGenderRequired is returned when gender is missing or unrecognized
	ErrGenderRequired = errors.New("gender must be M or F")

	// ErrInvalidAge is returned when age is negative
	ErrInvalidAge = errors.New("age must be a non-negative number")

	// ErrPatientNotFound is returned when a patient lookup misses
	ErrPatientNotFound = errors.New("patient not found")
)
