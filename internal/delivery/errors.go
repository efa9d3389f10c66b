package delivery

import "errors"

var (
	// ErrWhatsAppUnavailable is returned when no WhatsApp sender is configured
	ErrWhatsAppUnavailable = errors.New("whatsapp delivery is not configured")

	// ErrDeliveryFailed wraps a failed send; the visit stays IN_PROGRESS
	ErrDeliveryFailed = errors.New("prescription delivery failed")
)
