package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// MemoryRepository implements Repository with a mutex-guarded ordered
// collection keyed by id. It is the default backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	order    []uuid.UUID
	auctions map[uuid.UUID]*domain.Auction
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

// NewMemoryRepository creates an empty in-memory auction repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		auctions: make(map[uuid.UUID]*domain.Auction),
		log:      logging.GetLogger("repo.auction.memory_auction_repository"),
	}
}

// Add implements Repository.Add.
func (r *MemoryRepository) Add(_ context.Context, a *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.auctions {
		if existing.VehicleID == a.VehicleID {
			return fmt.Errorf("%w: %s", domain.ErrAuctionAlreadyExistsForVehicle, a.VehicleID)
		}
	}

	r.order = append(r.order, a.ID)
	r.auctions[a.ID] = a.Clone()

	return nil
}

// GetByID implements Repository.GetByID.
func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotFound, id)
	}

	return a.Clone(), nil
}

// GetAll implements Repository.GetAll.
func (r *MemoryRepository) GetAll(_ context.Context) ([]*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Auction, 0, len(r.order))

	for _, id := range r.order {
		all = append(all, r.auctions[id].Clone())
	}

	return all, nil
}

// ExistsForVehicle implements Repository.ExistsForVehicle.
func (r *MemoryRepository) ExistsForVehicle(_ context.Context, vehicleID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.auctions {
		if a.VehicleID == vehicleID {
			return true, nil
		}
	}

	return false, nil
}

// HasBidsByBidder implements Repository.HasBidsByBidder.
func (r *MemoryRepository) HasBidsByBidder(_ context.Context, bidderID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.auctions {
		for _, b := range a.Bids {
			if b.BidderID == bidderID {
				return true, nil
			}
		}
	}

	return false, nil
}

// StartAuction implements Repository.StartAuction.
func (r *MemoryRepository) StartAuction(_ context.Context, id uuid.UUID, startedAt time.Time) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotFound, id)
	}

	if err := a.Start(startedAt); err != nil {
		return nil, err
	}

	return a.Clone(), nil
}

// CloseAuction implements Repository.CloseAuction.
func (r *MemoryRepository) CloseAuction(_ context.Context, id uuid.UUID, closedAt time.Time) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotFound, id)
	}

	if err := a.CloseOut(closedAt); err != nil {
		return nil, err
	}

	return a.Clone(), nil
}

// PlaceBid implements Repository.PlaceBid.
func (r *MemoryRepository) PlaceBid(_ context.Context, auctionID uuid.UUID, bid domain.Bid) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotFound, auctionID)
	}

	if a.Status != domain.AuctionStatusOnGoing {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotActive, auctionID)
	}

	if highest := a.CurrentHighest(); !bid.Amount.GreaterThan(highest) {
		return nil, fmt.Errorf("%w: %s is not greater than %s",
			domain.ErrBidTooLow, bid.Amount, highest)
	}

	a.AppendBid(bid)

	return a.Clone(), nil
}

// Close implements Repository.Close. The memory backend holds no resources.
func (r *MemoryRepository) Close() error {
	return nil
}
