package appointments

import "errors"

var (
	// ErrNameRequired is returned when booking without a caller name
	ErrNameRequired = errors.New("name is required")

	// ErrMobileRequired is returned when booking without a mobile number
	ErrMobileRequired = errors.New("mobile_number is required")

	// ErrScheduleRequired is returned when booking without a slot time
	ErrScheduleRequired = errors.New("scheduled_at is required")

	// ErrAppointmentNotFound is returned when an appointment lookup misses
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrNotWaiting is returned when transitioning an appointment that has
	// already been resolved
	ErrNotWaiting = errors.New("appointment has already been resolved")

	// ErrInvalidStatus is returned for an unknown target status
	ErrInvalidStatus = errors.New("status must be CHECKED_IN or NO_SHOW")
)
