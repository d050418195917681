package bidder

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
)

// Repository defines the interface for bidder persistence.
type Repository interface {
	// Add stores a new bidder.
	// Returns ErrBidderAlreadyExists if the email is already registered,
	// compared case-insensitively.
	Add(ctx context.Context, b *domain.Bidder) error

	// GetByID retrieves a bidder by id.
	// Returns ErrBidderNotFound if no bidder with the id exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bidder, error)

	// Delete removes the bidder with the given id.
	// Returns ErrBidderNotFound if no bidder with the id exists.
	Delete(ctx context.Context, id uuid.UUID) error

	// EmailExists reports whether any bidder is registered with the email,
	// compared case-insensitively.
	EmailExists(ctx context.Context, email string) (bool, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
