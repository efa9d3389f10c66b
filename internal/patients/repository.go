package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	// Search matches a normalized mobile number exactly or a name prefix,
	// ordered by creation time ascending.
	Search(ctx context.Context, query string, limit int) ([]*Patient, error)
}

// InMemoryRepository is an in-memory implementation of Repository, used in
// development mode and in tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
	}
}

// Create registers a new patient in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Patient{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Mobile:    req.Mobile,
		Age:       req.Age,
		Gender:    req.Gender,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.patients[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

// GetByID retrieves a patient by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

// Search matches by normalized mobile or name prefix
func (r *InMemoryRepository) Search(ctx context.Context, query string, limit int) ([]*Patient, error) {
	if limit <= 0 {
		limit = 20
	}
	mobile, mobileErr := NormalizeMobile(query)
	namePrefix := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Patient
	for _, p := range r.patients {
		if mobileErr == nil && p.Mobile == mobile {
			out = append(out, p)
			continue
		}
		if namePrefix != "" && strings.HasPrefix(strings.ToLower(p.Name), namePrefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*Patient{}
	}
	return out, nil
}
