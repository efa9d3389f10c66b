package visits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinicdesk/internal/observability/metrics"
	"github.com/careloop/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.visits")

// Service owns visit lifecycle transitions. Status-update failures leave
// the visit in its prior state; there is no optimistic local transition.
type Service struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.WorkflowMetrics
}

// NewService constructs a visit service.
func NewService(repo Repository, logger *logging.Logger, m *metrics.WorkflowMetrics) *Service {
	if repo == nil {
		panic("visits: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: m}
}

// Create opens a new visit. The initial status is always WAITING regardless
// of any caller-supplied hint.
func (s *Service) Create(ctx context.Context, req *CreateVisitRequest) (*Visit, error) {
	ctx, span := tracer.Start(ctx, "visits.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	v := &Visit{
		ID:          uuid.New().String(),
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		Date:        date,
		Status:      StatusWaiting,
		VisitReason: req.VisitReason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("visits: create: %w", err)
	}

	span.SetAttributes(attribute.String("clinicdesk.visit_id", v.ID))
	s.logger.Info("visit opened", "visit_id", v.ID, "patient_id", v.PatientID)
	return v, nil
}

// Get loads a visit.
func (s *Service) Get(ctx context.Context, id string) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// Start begins the consultation: WAITING → IN_PROGRESS. Starting from any
// other state is rejected, so a double-click cannot issue a second write.
func (s *Service) Start(ctx context.Context, id string) (*Visit, error) {
	ctx, span := tracer.Start(ctx, "visits.start")
	defer span.End()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusWaiting {
		return nil, ErrNotWaiting
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusInProgress); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("visits: start: %w", err)
	}

	s.metrics.ObserveTransition(string(StatusWaiting), string(StatusInProgress))
	s.logger.Info("consultation started", "visit_id", id)
	v.Status = StatusInProgress
	return v, nil
}

// Complete finishes the visit: IN_PROGRESS → COMPLETED. It is gated on a
// persisted prescription; an unsaved prescription must never allow a visit
// to be marked complete.
func (s *Service) Complete(ctx context.Context, id string) (*Visit, error) {
	ctx, span := tracer.Start(ctx, "visits.complete")
	defer span.End()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == StatusCompleted {
		return nil, ErrVisitCompleted
	}
	if v.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}
	if v.PrescriptionID == "" {
		return nil, ErrPrescriptionNotSaved
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("visits: complete: %w", err)
	}

	s.metrics.ObserveTransition(string(StatusInProgress), string(StatusCompleted))
	s.logger.Info("visit completed", "visit_id", id, "prescription_id", v.PrescriptionID)
	v.Status = StatusCompleted
	return v, nil
}

// UpdateNotes persists free-text consultation notes, last write wins.
// Notes are frozen once the visit is completed.
func (s *Service) UpdateNotes(ctx context.Context, id string, notes string) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == StatusCompleted {
		return nil, ErrVisitCompleted
	}
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		return nil, fmt.Errorf("visits: update notes: %w", err)
	}
	v.Notes = notes
	return v, nil
}

// ListByPatient returns a patient's visit history, oldest first.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Visit, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Queue returns the visits currently waiting for consultation.
func (s *Service) Queue(ctx context.Context) ([]*Visit, error) {
	return s.repo.ListByStatus(ctx, StatusWaiting)
}
