package prescriptions

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinicdesk/internal/observability/metrics"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.prescriptions")

// Action reports whether a save created or replaced a prescription.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// SaveResult is the outcome of a binder save.
type SaveResult struct {
	Prescription *Prescription
	Action       Action
}

// Binder decides between creating and updating a visit's prescription. The
// decision is keyed solely on whether the visit already carries a
// prescription_id, never on client-side state.
type Binder struct {
	repo    Repository
	visits  visits.Repository
	guard   *SaveGuard
	logger  *logging.Logger
	metrics *metrics.WorkflowMetrics
}

// NewBinder constructs a binder.
func NewBinder(repo Repository, visitRepo visits.Repository, guard *SaveGuard, logger *logging.Logger, m *metrics.WorkflowMetrics) *Binder {
	if repo == nil {
		panic("prescriptions: repository required")
	}
	if visitRepo == nil {
		panic("prescriptions: visit repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Binder{repo: repo, visits: visitRepo, guard: guard, logger: logger, metrics: m}
}

// Save validates the draft and persists it against the visit, creating the
// prescription on first save and replacing its contents afterwards.
// Validation happens before any storage call, so a rejected draft leaves no
// trace. Saving repeatedly with the same draft is idempotent in content.
func (b *Binder) Save(ctx context.Context, visitID string, draft *Draft) (*SaveResult, error) {
	ctx, span := tracer.Start(ctx, "prescriptions.save")
	defer span.End()
	span.SetAttributes(attribute.String("clinicdesk.visit_id", visitID))

	kept, followUp, err := draft.Clean()
	if err != nil {
		return nil, err
	}

	release, err := b.guard.Acquire(ctx, visitID)
	if err != nil {
		return nil, err
	}
	defer release()

	v, err := b.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	p := &Prescription{
		Medicines: kept,
		FollowUp:  followUp,
		Notes:     draft.Notes,
	}

	if v.PrescriptionID != "" {
		return b.update(ctx, v.PrescriptionID, p)
	}

	created, err := b.repo.CreateForVisit(ctx, visitID, p)
	if errors.Is(err, visits.ErrAlreadyBound) {
		// Lost the race against a concurrent first save. Re-read the link
		// and fall through to the update arm.
		v, err = b.visits.GetByID(ctx, visitID)
		if err != nil {
			return nil, err
		}
		if v.PrescriptionID == "" {
			return nil, visits.ErrAlreadyBound
		}
		return b.update(ctx, v.PrescriptionID, p)
	}
	if err != nil {
		return nil, fmt.Errorf("prescriptions: save: %w", err)
	}

	b.metrics.ObserveSave(string(ActionCreated), "ok")
	b.logger.Info("prescription created", "visit_id", visitID, "prescription_id", created.ID, "medicines", len(created.Medicines))
	return &SaveResult{Prescription: created, Action: ActionCreated}, nil
}

// SaveByPrescriptionID resolves a prescription back to its visit and routes
// through Save, so update requests obey the same binding rules.
func (b *Binder) SaveByPrescriptionID(ctx context.Context, prescriptionID string, draft *Draft) (*SaveResult, error) {
	existing, err := b.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	return b.Save(ctx, existing.VisitID, draft)
}

// Get loads a saved prescription.
func (b *Binder) Get(ctx context.Context, id string) (*Prescription, error) {
	return b.repo.GetByID(ctx, id)
}

// MedicineCount reports line-item count for progress derivation.
func (b *Binder) MedicineCount(ctx context.Context, id string) (int, error) {
	return b.repo.MedicineCount(ctx, id)
}

func (b *Binder) update(ctx context.Context, id string, p *Prescription) (*SaveResult, error) {
	updated, err := b.repo.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: save: %w", err)
	}
	b.metrics.ObserveSave(string(ActionUpdated), "ok")
	b.logger.Info("prescription updated", "prescription_id", id, "medicines", len(updated.Medicines))
	return &SaveResult{Prescription: updated, Action: ActionUpdated}, nil
}
