package appointments

import (
	"context"
	"sort"
	"sync"
)

// Repository defines the interface for appointment storage
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListByDate(ctx context.Context, dayStart, dayEnd int64) ([]*Appointment, error)
}

// InMemoryRepository is an in-memory implementation of Repository, used in
// development mode and in tests.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appointments: make(map[string]*Appointment)}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r *InMemoryRepository) ListByDate(ctx context.Context, dayStart, dayEnd int64) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0)
	for _, a := range r.appointments {
		ts := a.ScheduledAt.Unix()
		if ts >= dayStart && ts < dayEnd {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}
