package vehicle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// MemoryRepository implements Repository with a mutex-guarded ordered
// collection keyed by id. It is the default backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	order    []uuid.UUID
	vehicles map[uuid.UUID]domain.Vehicle
	log      logging.Logger
}

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepositoryFactory creates a factory function that returns a new
// MemoryRepository.
func MemoryRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemoryRepository(), nil
	}
}

// NewMemoryRepository creates an empty in-memory vehicle repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		vehicles: make(map[uuid.UUID]domain.Vehicle),
		log:      logging.GetLogger("repo.vehicle.memory_vehicle_repository"),
	}
}

// Add implements Repository.Add.
func (r *MemoryRepository) Add(_ context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vehicles[v.ID]; !exists {
		r.order = append(r.order, v.ID)
	}

	r.vehicles[v.ID] = *v

	return nil
}

// GetByID implements Repository.GetByID.
func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, id)
	}

	return &v, nil
}

// Update implements Repository.Update.
func (r *MemoryRepository) Update(_ context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vehicles[v.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, v.ID)
	}

	r.vehicles[v.ID] = *v

	return nil
}

// Delete implements Repository.Delete.
func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vehicles[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, id)
	}

	delete(r.vehicles, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}

// Search implements Repository.Search.
func (r *MemoryRepository) Search(_ context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*domain.Vehicle, 0, len(r.order))

	for _, id := range r.order {
		v := r.vehicles[id]
		if filter.Matches(&v) {
			matches = append(matches, &v)
		}
	}

	return matches, nil
}

// Close implements Repository.Close. The memory backend holds no resources.
func (r *MemoryRepository) Close() error {
	return nil
}
