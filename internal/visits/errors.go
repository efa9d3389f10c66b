package visits

import "errors"

var (
	// ErrPatientRequired is returned when a visit is opened without a patient
	ErrPatientRequired = errors.New("patient_id is required")

	// ErrVisitNotFound is returned when a visit lookup misses
	ErrVisitNotFound = errors.New("visit not found")

	// ErrNotWaiting rejects starting a consultation twice
	ErrNotWaiting = errors.New("consultation can only start from WAITING")

	// ErrNotInProgress rejects completing a visit that was never started
	ErrNotInProgress = errors.New("visit can only be completed from IN_PROGRESS")

	// ErrPrescriptionNotSaved gates completion on a persisted prescription
	ErrPrescriptionNotSaved = errors.New("prescription must be saved before completing the visit")

	// ErrVisitCompleted rejects mutations on a completed visit
	ErrVisitCompleted = errors.New("visit is already completed")

	// ErrAlreadyBound is returned when a visit already links a different prescription
	ErrAlreadyBound = errors.New("visit already has a prescription")
)
