package whatsapp

import (
	"errors"
	"strings"
)

// SendPrescriptionRequest is the delivery payload for one prescription.
type SendPrescriptionRequest struct {
	Mobile      string
	PatientName string
	Body        string
}

func (r SendPrescriptionRequest) validate() error {
	if strings.TrimSpace(r.Mobile) == "" {
		return errors.New("whatsapp: mobile number required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return errors.New("whatsapp: message body required")
	}
	return nil
}

// SendResponse is the provider acknowledgement for a sent message.
type SendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status,omitempty"`
}
