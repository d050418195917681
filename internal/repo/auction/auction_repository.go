package auction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/carauction/internal/domain"
)

// Repository defines the interface for auction persistence. State-changing
// operations revalidate the transition under the store's lock so that
// check-then-mutate sequences are atomic per store.
type Repository interface {
	// Add stores a new auction.
	// Returns ErrAuctionAlreadyExistsForVehicle if any auction already
	// references the same vehicle.
	Add(ctx context.Context, a *domain.Auction) error

	// GetByID retrieves an auction by id, bids included.
	// Returns ErrAuctionNotFound if no auction with the id exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error)

	// GetAll returns every auction in store order.
	GetAll(ctx context.Context) ([]*domain.Auction, error)

	// ExistsForVehicle reports whether any auction, regardless of status,
	// references the vehicle.
	ExistsForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)

	// HasBidsByBidder reports whether any auction holds a bid by the bidder.
	HasBidsByBidder(ctx context.Context, bidderID uuid.UUID) (bool, error)

	// StartAuction transitions the auction to OnGoing and records the start
	// time. Returns ErrAuctionNotFound, ErrAuctionAlreadyStarted or
	// ErrAuctionAlreadyClosed.
	StartAuction(ctx context.Context, id uuid.UUID, startedAt time.Time) (*domain.Auction, error)

	// CloseAuction transitions the auction to Closed, keeping the cached
	// highest bid and bidder as final price and winner. Returns
	// ErrAuctionNotFound, ErrAuctionNotActive or ErrAuctionHasNoBids.
	CloseAuction(ctx context.Context, id uuid.UUID, closedAt time.Time) (*domain.Auction, error)

	// PlaceBid appends the bid and updates the cached highest bid and bidder.
	// The amount is revalidated against the current highest under the store
	// lock; returns ErrAuctionNotFound, ErrAuctionNotActive or ErrBidTooLow.
	PlaceBid(ctx context.Context, auctionID uuid.UUID, bid domain.Bid) (*domain.Auction, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
