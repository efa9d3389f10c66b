package visits

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for visit storage
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id string) (*Visit, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateNotes(ctx context.Context, id string, notes string) error
	// SetPrescriptionID links a prescription to a visit. Linking the same
	// prescription twice is a no-op; linking a different one fails with
	// ErrAlreadyBound.
	SetPrescriptionID(ctx context.Context, id string, prescriptionID string) error
	ListByPatient(ctx context.Context, patientID string) ([]*Visit, error)
	ListByStatus(ctx context.Context, status Status) ([]*Visit, error)
}

// InMemoryRepository is an in-memory implementation of Repository, used in
// development mode and in tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	visits map[string]*Visit
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{visits: make(map[string]*Visit)}
}

func (r *InMemoryRepository) Create(ctx context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *v
	r.visits[v.ID] = &clone
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.visits[id]
	if !ok {
		return nil, ErrVisitNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return ErrVisitNotFound
	}
	v.Status = status
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdateNotes(ctx context.Context, id string, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return ErrVisitNotFound
	}
	v.Notes = notes
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) SetPrescriptionID(ctx context.Context, id string, prescriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return ErrVisitNotFound
	}
	if v.PrescriptionID != "" && v.PrescriptionID != prescriptionID {
		return ErrAlreadyBound
	}
	v.PrescriptionID = prescriptionID
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Visit
	for _, v := range r.visits {
		if v.PatientID == patientID {
			clone := *v
			out = append(out, &clone)
		}
	}
	sortByDate(out)
	if out == nil {
		out = []*Visit{}
	}
	return out, nil
}

func (r *InMemoryRepository) ListByStatus(ctx context.Context, status Status) ([]*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Visit
	for _, v := range r.visits {
		if v.Status == status {
			clone := *v
			out = append(out, &clone)
		}
	}
	sortByDate(out)
	if out == nil {
		out = []*Visit{}
	}
	return out, nil
}

func sortByDate(vs []*Visit) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Date.Equal(vs[j].Date) {
			return vs[i].CreatedAt.Before(vs[j].CreatedAt)
		}
		return vs[i].Date.Before(vs[j].Date)
	})
}
