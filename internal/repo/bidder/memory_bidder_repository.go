package bidder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// MemoryRepository implements Repository with a mutex-guarded ordered
// collection keyed by id. It is the default backend.
type MemoryRepository struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	bidders map[uuid.UUID]domain.Bidder
	log     logging.Logger
}

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepositoryFactory creates a factory function that returns a new
// MemoryRepository.
func MemoryRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemoryRepository(), nil
	}
}

// NewMemoryRepository creates an empty in-memory bidder repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bidders: make(map[uuid.UUID]domain.Bidder),
		log:     logging.GetLogger("repo.bidder.memory_bidder_repository"),
	}
}

// Add implements Repository.Add.
func (r *MemoryRepository) Add(_ context.Context, b *domain.Bidder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bidders {
		if strings.EqualFold(existing.Email, b.Email) {
			return fmt.Errorf("%w: %s", domain.ErrBidderAlreadyExists, b.Email)
		}
	}

	r.order = append(r.order, b.ID)
	r.bidders[b.ID] = *b

	return nil
}

// GetByID implements Repository.GetByID.
func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Bidder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bidders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBidderNotFound, id)
	}

	return &b, nil
}

// Delete implements Repository.Delete.
func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bidders[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrBidderNotFound, id)
	}

	delete(r.bidders, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}

// EmailExists implements Repository.EmailExists.
func (r *MemoryRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bidders {
		if strings.EqualFold(b.Email, email) {
			return true, nil
		}
	}

	return false, nil
}

// Close implements Repository.Close. The memory backend holds no resources.
func (r *MemoryRepository) Close() error {
	return nil
}
