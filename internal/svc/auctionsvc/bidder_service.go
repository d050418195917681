package auctionsvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
	"github.com/mkrupp/carauction/internal/repo/auction"
	"github.com/mkrupp/carauction/internal/repo/bidder"
)

// CreateBidderRequest carries the fields for registering a bidder.
type CreateBidderRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BidderResponse is the outward projection of a bidder.
type BidderResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BidHistoryEntry is one placed bid in a bidder's history.
type BidHistoryEntry struct {
	AuctionID uuid.UUID       `json:"auctionId"`
	Amount    decimal.Decimal `json:"amount"`
}

// BidderDetailsResponse is a bidder plus every bid they placed, flattened
// across all auctions in discovery order.
type BidderDetailsResponse struct {
	ID    uuid.UUID         `json:"id"`
	Name  string            `json:"name"`
	Email string            `json:"email"`
	Bids  []BidHistoryEntry `json:"bids"`
}

// BidderAuctionSummary is one auction a bidder participated in.
// LastBidAmount reports the bidder's largest bid amount in the auction.
type BidderAuctionSummary struct {
	AuctionID     uuid.UUID       `json:"auctionId"`
	Status        string          `json:"status"`
	VehicleID     uuid.UUID       `json:"vehicleId"`
	TotalBids     int             `json:"totalBids"`
	LastBidAmount decimal.Decimal `json:"lastBidAmount"`
}

// BidderAuctionsResponse lists every auction holding at least one bid by the
// bidder.
type BidderAuctionsResponse struct {
	BidderID uuid.UUID              `json:"bidderId"`
	Auctions []BidderAuctionSummary `json:"auctions"`
}

// BidderService implements bidder registration, deletion and bid-history
// queries, enforcing email uniqueness and the no-deletion-after-bidding
// guard.
type BidderService struct {
	BidderRepo  bidder.Repository
	AuctionRepo auction.Repository
	Log         logging.Logger
}

// NewBidderService creates a new BidderService on top of the given
// repositories.
func NewBidderService(bidderRepo bidder.Repository, auctionRepo auction.Repository) *BidderService {
	return &BidderService{
		BidderRepo:  bidderRepo,
		AuctionRepo: auctionRepo,
		Log:         logging.GetLogger("svc.auctionsvc.bidder_service"),
	}
}

// CreateBidder registers a bidder. The email must not be registered yet,
// compared case-insensitively.
func (s *BidderService) CreateBidder(ctx context.Context, req CreateBidderRequest) (_ BidderResponse, err error) {
	log := s.Log.With(logging.Group("bidder", "email", req.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create bidder failed", "error", err)
		} else {
			log.DebugContext(ctx, "bidder created")
		}
	}()

	exists, err := s.BidderRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return BidderResponse{}, fmt.Errorf("check email: %w", err)
	} else if exists {
		return BidderResponse{}, fmt.Errorf("%w: %s", domain.ErrBidderAlreadyExists, req.Email)
	}

	b := domain.NewBidder(req.Name, req.Email)

	if err := s.BidderRepo.Add(ctx, b); err != nil {
		return BidderResponse{}, fmt.Errorf("add bidder: %w", err)
	}

	return BidderResponse{ID: b.ID, Name: b.Name, Email: b.Email}, nil
}

// DeleteBidder removes a bidder who has never placed a bid on any auction.
func (s *BidderService) DeleteBidder(ctx context.Context, id uuid.UUID) (err error) {
	log := s.Log.With(logging.Group("bidder", "id", id.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete bidder failed", "error", err)
		} else {
			log.DebugContext(ctx, "bidder deleted")
		}
	}()

	if _, err := s.BidderRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get bidder: %w", err)
	}

	hasBids, err := s.AuctionRepo.HasBidsByBidder(ctx, id)
	if err != nil {
		return fmt.Errorf("check bids: %w", err)
	} else if hasBids {
		return fmt.Errorf("%w: %s", domain.ErrBidderHasPlacedBids, id)
	}

	if err := s.BidderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bidder: %w", err)
	}

	return nil
}

// GetBidderWithBids returns the bidder plus the flattened list of their bids
// across all auctions.
func (s *BidderService) GetBidderWithBids(ctx context.Context, id uuid.UUID) (BidderDetailsResponse, error) {
	b, err := s.BidderRepo.GetByID(ctx, id)
	if err != nil {
		return BidderDetailsResponse{}, fmt.Errorf("get bidder: %w", err)
	}

	all, err := s.AuctionRepo.GetAll(ctx)
	if err != nil {
		return BidderDetailsResponse{}, fmt.Errorf("get auctions: %w", err)
	}

	bids := make([]BidHistoryEntry, 0)

	for _, a := range all {
		for _, bid := range a.BidsByBidder(id) {
			bids = append(bids, BidHistoryEntry{
				AuctionID: bid.AuctionID,
				Amount:    bid.Amount,
			})
		}
	}

	return BidderDetailsResponse{
		ID:    b.ID,
		Name:  b.Name,
		Email: b.Email,
		Bids:  bids,
	}, nil
}

// GetAuctionsByBidder returns, for every auction the bidder participated in,
// the auction's status and vehicle plus the bidder's bid count and largest
// bid amount.
func (s *BidderService) GetAuctionsByBidder(ctx context.Context, id uuid.UUID) (BidderAuctionsResponse, error) {
	if _, err := s.BidderRepo.GetByID(ctx, id); err != nil {
		return BidderAuctionsResponse{}, fmt.Errorf("get bidder: %w", err)
	}

	all, err := s.AuctionRepo.GetAll(ctx)
	if err != nil {
		return BidderAuctionsResponse{}, fmt.Errorf("get auctions: %w", err)
	}

	auctions := make([]BidderAuctionSummary, 0)

	for _, a := range all {
		bids := a.BidsByBidder(id)
		if len(bids) == 0 {
			continue
		}

		// Largest amount, not most recent, mirroring the established
		// behavior of this endpoint.
		largest := bids[0].Amount
		for _, bid := range bids[1:] {
			if bid.Amount.GreaterThan(largest) {
				largest = bid.Amount
			}
		}

		auctions = append(auctions, BidderAuctionSummary{
			AuctionID:     a.ID,
			Status:        string(a.Status),
			VehicleID:     a.VehicleID,
			TotalBids:     len(bids),
			LastBidAmount: largest,
		})
	}

	return BidderAuctionsResponse{BidderID: id, Auctions: auctions}, nil
}
