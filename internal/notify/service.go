package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/careloop/clinicdesk/pkg/logging"
)

// Config holds notification preferences for the clinic.
type Config struct {
	Enabled    bool
	Recipients []string
	ClinicName string
}

// VisitCompleted carries the details announced when a visit finishes.
type VisitCompleted struct {
	PatientName   string
	PatientMobile string
	VisitID       string
	MedicineCount int
	FollowUpText  string // e.g. "2 WEEKS", empty when no follow-up
	CompletedAt   time.Time
}

// Service sends operational notices to clinic staff. Delivery failures are
// reported but never block the visit workflow.
type Service struct {
	email  EmailSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "ClinicDesk"
	}
	return &Service{email: email, cfg: cfg, logger: logger}
}

// NotifyVisitCompleted emails staff when a visit is closed out.
func (s *Service) NotifyVisitCompleted(ctx context.Context, evt VisitCompleted) error {
	if !s.cfg.Enabled || s.email == nil || len(s.cfg.Recipients) == 0 {
		s.logger.Debug("notify: completion notices disabled, skipping", "visit_id", evt.VisitID)
		return nil
	}

	name := evt.PatientName
	if name == "" {
		name = "A patient"
	}
	completedAt := evt.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	followUpInfo := ""
	if evt.FollowUpText != "" {
		followUpInfo = fmt.Sprintf("\nFollow-up: in %s", evt.FollowUpText)
	}

	subject := fmt.Sprintf("Visit completed - %s", name)
	body := fmt.Sprintf(`%s's visit is complete.

Patient: %s
Phone: %s
Medicines prescribed: %d
Completed: %s%s

- %s`, name, name, evt.PatientMobile, evt.MedicineCount,
		completedAt.Format("January 2, 2006 at 3:04 PM"), followUpInfo, s.cfg.ClinicName)

	var errs []error
	for _, recipient := range s.cfg.Recipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send completion email", "error", err, "to", recipient)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: completion email sent", "to", recipient, "visit_id", evt.VisitID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

// FollowUpText renders a follow-up as human text, e.g. (2, "WEEKS") → "2 WEEKS".
func FollowUpText(value int, unit string) string {
	if value <= 0 {
		return ""
	}
	return fmt.Sprintf("%d %s", value, strings.ToUpper(unit))
}
