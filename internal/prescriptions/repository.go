package prescriptions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinicdesk/internal/visits"
)

// Repository defines the interface for prescription storage. CreateForVisit
// must atomically link the new prescription to its visit and fail with
// visits.ErrAlreadyBound when the visit already owns one.
type Repository interface {
	CreateForVisit(ctx context.Context, visitID string, p *Prescription) (*Prescription, error)
	Update(ctx context.Context, id string, p *Prescription) (*Prescription, error)
	GetByID(ctx context.Context, id string) (*Prescription, error)
	MedicineCount(ctx context.Context, id string) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository, used in
// development mode and in tests. It needs the visit repository to maintain
// the visit → prescription link.
type InMemoryRepository struct {
	mu            sync.RWMutex
	prescriptions map[string]*Prescription
	visits        visits.Repository
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(visitRepo visits.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		prescriptions: make(map[string]*Prescription),
		visits:        visitRepo,
	}
}

func (r *InMemoryRepository) CreateForVisit(ctx context.Context, visitID string, p *Prescription) (*Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, err := r.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.PrescriptionID != "" {
		return nil, visits.ErrAlreadyBound
	}

	now := time.Now().UTC()
	stored := clonePrescription(p)
	stored.ID = uuid.New().String()
	stored.VisitID = visitID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	assignMedicineIDs(stored.Medicines)

	if err := r.visits.SetPrescriptionID(ctx, visitID, stored.ID); err != nil {
		return nil, err
	}
	r.prescriptions[stored.ID] = stored
	return clonePrescription(stored), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, p *Prescription) (*Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.prescriptions[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}

	stored := clonePrescription(p)
	stored.ID = existing.ID
	stored.VisitID = existing.VisitID
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	assignMedicineIDs(stored.Medicines)

	r.prescriptions[id] = stored
	return clonePrescription(stored), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prescriptions[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return clonePrescription(p), nil
}

func (r *InMemoryRepository) MedicineCount(ctx context.Context, id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prescriptions[id]
	if !ok {
		return 0, ErrPrescriptionNotFound
	}
	return len(p.Medicines), nil
}

func assignMedicineIDs(meds []Medicine) {
	for i := range meds {
		if meds[i].ID == "" {
			meds[i].ID = uuid.New().String()
		}
	}
}

func clonePrescription(p *Prescription) *Prescription {
	clone := *p
	clone.Medicines = append([]Medicine(nil), p.Medicines...)
	if p.FollowUp != nil {
		fu := *p.FollowUp
		clone.FollowUp = &fu
	}
	return &clone
}
