package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.appointments")

// Service owns appointment booking and resolution. An appointment resolves
// exactly once: WAITING → CHECKED_IN or WAITING → NO_SHOW.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService constructs an appointment service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Book creates a WAITING appointment.
func (s *Service) Book(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.book")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	mobile, err := patients.NormalizeMobile(req.Mobile)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &Appointment{
		ID:          uuid.New().String(),
		PatientID:   req.PatientID,
		Name:        strings.TrimSpace(req.Name),
		Mobile:      mobile,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Status:      StatusWaiting,
		Reason:      req.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: book: %w", err)
	}

	s.logger.Info("appointment booked", "appointment_id", a.ID, "name", a.Name, "scheduled_at", a.ScheduledAt)
	return a, nil
}

// Resolve moves a WAITING appointment to CHECKED_IN or NO_SHOW. Checking in
// does not open a visit; the front desk does that separately.
func (s *Service) Resolve(ctx context.Context, id string, target Status) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.resolve")
	defer span.End()

	if target != StatusCheckedIn && target != StatusNoShow {
		return nil, ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusWaiting {
		return nil, ErrNotWaiting
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: resolve: %w", err)
	}

	s.logger.Info("appointment resolved", "appointment_id", id, "status", target)
	a.Status = target
	return a, nil
}

// ListForDay returns the appointments scheduled within a calendar day.
func (s *Service) ListForDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	return s.repo.ListByDate(ctx, start.Unix(), end.Unix())
}
