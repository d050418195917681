package vehicle

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
)

// Repository defines the interface for vehicle persistence.
type Repository interface {
	// Add stores a new vehicle.
	Add(ctx context.Context, v *domain.Vehicle) error

	// GetByID retrieves a vehicle by id.
	// Returns ErrVehicleNotFound if no vehicle with the id exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)

	// Update overwrites the stored vehicle with the same id.
	// Returns ErrVehicleNotFound if no vehicle with the id exists.
	Update(ctx context.Context, v *domain.Vehicle) error

	// Delete removes the vehicle with the given id.
	// Returns ErrVehicleNotFound if no vehicle with the id exists.
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns vehicles matching the conjunction of all set filter
	// fields, in store order. An empty filter returns every vehicle.
	Search(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
