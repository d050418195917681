package auctionsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
	"github.com/mkrupp/carauction/internal/repo/auction"
	"github.com/mkrupp/carauction/internal/repo/bidder"
	"github.com/mkrupp/carauction/internal/repo/vehicle"
)

// AddAuctionRequest names the vehicle to open an auction for.
type AddAuctionRequest struct {
	VehicleID uuid.UUID `json:"vehicleId"`
}

// StartAuctionRequest names the auction to start.
type StartAuctionRequest struct {
	AuctionID uuid.UUID `json:"auctionId"`
}

// CloseAuctionRequest names the auction to close.
type CloseAuctionRequest struct {
	AuctionID uuid.UUID `json:"auctionId"`
}

// PlaceBidRequest carries a bid on an ongoing auction.
type PlaceBidRequest struct {
	AuctionID uuid.UUID       `json:"auctionId"`
	BidderID  uuid.UUID       `json:"bidderId"`
	Amount    decimal.Decimal `json:"amount"`
}

// BidResponse is the outward projection of a single bid.
type BidResponse struct {
	BidID    uuid.UUID       `json:"bidId"`
	BidderID uuid.UUID       `json:"bidderId"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placedAt"`
}

// AuctionResponse is the outward projection of an auction. HighestBid and
// HighestBidder are absent while no bid has been accepted.
type AuctionResponse struct {
	ID            uuid.UUID        `json:"id"`
	VehicleID     uuid.UUID        `json:"vehicleId"`
	Status        string           `json:"status"`
	Bids          []BidResponse    `json:"bids"`
	HighestBid    *decimal.Decimal `json:"highestBid,omitempty"`
	HighestBidder *uuid.UUID       `json:"highestBidder,omitempty"`
	StartedAt     *time.Time       `json:"startedAt,omitempty"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
}

// StartAuctionResponse reports a successful start transition.
type StartAuctionResponse struct {
	AuctionID uuid.UUID `json:"auctionId"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

// CloseAuctionResponse reports a successful close transition with the final
// price and winner taken from the cached highest bid.
type CloseAuctionResponse struct {
	AuctionID  uuid.UUID        `json:"auctionId"`
	Status     string           `json:"status"`
	FinalPrice *decimal.Decimal `json:"finalPrice,omitempty"`
	WinnerID   *uuid.UUID       `json:"winnerId,omitempty"`
}

// PlaceBidResponse reports an accepted bid.
type PlaceBidResponse struct {
	AuctionID  uuid.UUID       `json:"auctionId"`
	BidID      uuid.UUID       `json:"bidId"`
	Amount     decimal.Decimal `json:"amount"`
	BidderID   uuid.UUID       `json:"bidderId"`
	BidderName string          `json:"bidderName"`
}

// AuctionBidsResponse lists an auction's bids in insertion order.
type AuctionBidsResponse struct {
	AuctionID uuid.UUID     `json:"auctionId"`
	Bids      []BidResponse `json:"bids"`
}

func newBidResponses(bids []domain.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))

	for _, b := range bids {
		out = append(out, BidResponse{
			BidID:    b.ID,
			BidderID: b.BidderID,
			Amount:   b.Amount,
			PlacedAt: b.PlacedAt,
		})
	}

	return out
}

func newAuctionResponse(a *domain.Auction) AuctionResponse {
	resp := AuctionResponse{
		ID:        a.ID,
		VehicleID: a.VehicleID,
		Status:    string(a.Status),
		Bids:      newBidResponses(a.Bids),
		StartedAt: a.StartedAt,
		ClosedAt:  a.ClosedAt,
	}

	if len(a.Bids) > 0 {
		highest := a.HighestBid
		winner := a.HighestBidder
		resp.HighestBid = &highest
		resp.HighestBidder = &winner
	}

	return resp
}

// AuctionService implements the auction state machine and bid acceptance
// rules on top of the vehicle, auction and bidder repositories.
type AuctionService struct {
	AuctionRepo auction.Repository
	VehicleRepo vehicle.Repository
	BidderRepo  bidder.Repository
	Log         logging.Logger

	// now is the clock for start/close/bid timestamps; replaceable in tests.
	now func() time.Time
}

// NewAuctionService creates a new AuctionService on top of the given
// repositories.
func NewAuctionService(
	auctionRepo auction.Repository,
	vehicleRepo vehicle.Repository,
	bidderRepo bidder.Repository,
) *AuctionService {
	return &AuctionService{
		AuctionRepo: auctionRepo,
		VehicleRepo: vehicleRepo,
		BidderRepo:  bidderRepo,
		Log:         logging.GetLogger("svc.auctionsvc.auction_service"),
		now:         time.Now,
	}
}

// AddAuction creates an auction in state NotStarted for an existing vehicle.
// A vehicle can be referenced by at most one auction, regardless of status.
func (s *AuctionService) AddAuction(ctx context.Context, vehicleID uuid.UUID) (_ AuctionResponse, err error) {
	log := s.Log.With(logging.Group("auction", "vehicleId", vehicleID.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "add auction failed", "error", err)
		} else {
			log.DebugContext(ctx, "auction added")
		}
	}()

	if _, err := s.VehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return AuctionResponse{}, fmt.Errorf("get vehicle: %w", err)
	}

	exists, err := s.AuctionRepo.ExistsForVehicle(ctx, vehicleID)
	if err != nil {
		return AuctionResponse{}, fmt.Errorf("check auction: %w", err)
	} else if exists {
		return AuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionAlreadyExistsForVehicle, vehicleID)
	}

	a := domain.NewAuction(vehicleID)

	if err := s.AuctionRepo.Add(ctx, a); err != nil {
		return AuctionResponse{}, fmt.Errorf("add auction: %w", err)
	}

	return newAuctionResponse(a), nil
}

// StartAuction transitions an auction from NotStarted to OnGoing and records
// the start time.
func (s *AuctionService) StartAuction(ctx context.Context, auctionID uuid.UUID) (_ StartAuctionResponse, err error) {
	log := s.Log.With(logging.Group("auction", "id", auctionID.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "start auction failed", "error", err)
		} else {
			log.DebugContext(ctx, "auction started")
		}
	}()

	a, err := s.AuctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return StartAuctionResponse{}, fmt.Errorf("get auction: %w", err)
	}

	if !a.HasVehicle() {
		return StartAuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionCannotStart, auctionID)
	}

	switch a.Status {
	case domain.AuctionStatusOnGoing:
		return StartAuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionAlreadyStarted, auctionID)
	case domain.AuctionStatusClosed:
		return StartAuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionAlreadyClosed, auctionID)
	}

	started, err := s.AuctionRepo.StartAuction(ctx, auctionID, s.now())
	if err != nil {
		return StartAuctionResponse{}, fmt.Errorf("start auction: %w", err)
	}

	return StartAuctionResponse{
		AuctionID: started.ID,
		Status:    string(started.Status),
		StartedAt: *started.StartedAt,
	}, nil
}

// PlaceBid validates and appends a bid to an ongoing auction. A bid must be
// strictly greater than both the vehicle's starting bid and the current
// highest bid; ties are rejected.
func (s *AuctionService) PlaceBid(ctx context.Context, req PlaceBidRequest) (_ PlaceBidResponse, err error) {
	log := s.Log.With(logging.Group("bid",
		"auctionId", req.AuctionID.String(),
		"bidderId", req.BidderID.String(),
		"amount", req.Amount.String(),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "place bid failed", "error", err)
		} else {
			log.DebugContext(ctx, "bid placed")
		}
	}()

	a, err := s.AuctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		return PlaceBidResponse{}, fmt.Errorf("get auction: %w", err)
	}

	if a.Status != domain.AuctionStatusOnGoing {
		return PlaceBidResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionNotActive, req.AuctionID)
	}

	if !a.HasVehicle() {
		return PlaceBidResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionHasNoVehicle, req.AuctionID)
	}

	v, err := s.VehicleRepo.GetByID(ctx, a.VehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return PlaceBidResponse{}, errors.Join(
				fmt.Errorf("%w: %s", domain.ErrAuctionHasNoVehicle, req.AuctionID), err)
		}

		return PlaceBidResponse{}, fmt.Errorf("get vehicle: %w", err)
	}

	if !req.Amount.GreaterThan(v.StartingBid) {
		return PlaceBidResponse{}, fmt.Errorf("%w: %s is not greater than %s",
			domain.ErrBidBelowStartingPrice, req.Amount, v.StartingBid)
	}

	b, err := s.BidderRepo.GetByID(ctx, req.BidderID)
	if err != nil {
		return PlaceBidResponse{}, fmt.Errorf("get bidder: %w", err)
	}

	if highest := a.CurrentHighest(); !req.Amount.GreaterThan(highest) {
		return PlaceBidResponse{}, fmt.Errorf("%w: %s is not greater than %s",
			domain.ErrBidTooLow, req.Amount, highest)
	}

	bid := domain.NewBid(req.AuctionID, req.BidderID, req.Amount, s.now())

	if _, err := s.AuctionRepo.PlaceBid(ctx, req.AuctionID, bid); err != nil {
		return PlaceBidResponse{}, fmt.Errorf("place bid: %w", err)
	}

	return PlaceBidResponse{
		AuctionID:  req.AuctionID,
		BidID:      bid.ID,
		Amount:     bid.Amount,
		BidderID:   b.ID,
		BidderName: b.Name,
	}, nil
}

// CloseAuction transitions an ongoing auction with at least one bid to
// Closed. The cached highest bid and bidder become final price and winner.
func (s *AuctionService) CloseAuction(ctx context.Context, auctionID uuid.UUID) (_ CloseAuctionResponse, err error) {
	log := s.Log.With(logging.Group("auction", "id", auctionID.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "close auction failed", "error", err)
		} else {
			log.DebugContext(ctx, "auction closed")
		}
	}()

	a, err := s.AuctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return CloseAuctionResponse{}, fmt.Errorf("get auction: %w", err)
	}

	if a.Status != domain.AuctionStatusOnGoing {
		return CloseAuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionNotActive, auctionID)
	}

	if len(a.Bids) == 0 {
		return CloseAuctionResponse{}, fmt.Errorf("%w: %s", domain.ErrAuctionHasNoBids, auctionID)
	}

	closed, err := s.AuctionRepo.CloseAuction(ctx, auctionID, s.now())
	if err != nil {
		return CloseAuctionResponse{}, fmt.Errorf("close auction: %w", err)
	}

	finalPrice := closed.HighestBid
	winner := closed.HighestBidder

	return CloseAuctionResponse{
		AuctionID:  closed.ID,
		Status:     string(closed.Status),
		FinalPrice: &finalPrice,
		WinnerID:   &winner,
	}, nil
}

// GetAuctionByID returns the auction with the given id, bids included.
func (s *AuctionService) GetAuctionByID(ctx context.Context, id uuid.UUID) (AuctionResponse, error) {
	a, err := s.AuctionRepo.GetByID(ctx, id)
	if err != nil {
		return AuctionResponse{}, fmt.Errorf("get auction: %w", err)
	}

	return newAuctionResponse(a), nil
}

// GetAuctionBids returns the auction's bid sequence in insertion order.
func (s *AuctionService) GetAuctionBids(ctx context.Context, id uuid.UUID) (AuctionBidsResponse, error) {
	a, err := s.AuctionRepo.GetByID(ctx, id)
	if err != nil {
		return AuctionBidsResponse{}, fmt.Errorf("get auction: %w", err)
	}

	return AuctionBidsResponse{
		AuctionID: a.ID,
		Bids:      newBidResponses(a.Bids),
	}, nil
}

// GetAllAuctions returns every auction. An empty store yields an empty
// slice, never an error.
func (s *AuctionService) GetAllAuctions(ctx context.Context) ([]AuctionResponse, error) {
	return s.auctionsByStatus(ctx, "")
}

// GetOnGoingAuctions returns every ongoing auction.
func (s *AuctionService) GetOnGoingAuctions(ctx context.Context) ([]AuctionResponse, error) {
	return s.auctionsByStatus(ctx, domain.AuctionStatusOnGoing)
}

// GetAllClosedAuctions returns every closed auction.
func (s *AuctionService) GetAllClosedAuctions(ctx context.Context) ([]AuctionResponse, error) {
	return s.auctionsByStatus(ctx, domain.AuctionStatusClosed)
}

func (s *AuctionService) auctionsByStatus(ctx context.Context, status domain.AuctionStatus) ([]AuctionResponse, error) {
	all, err := s.AuctionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get auctions: %w", err)
	}

	matches := make([]AuctionResponse, 0, len(all))

	for _, a := range all {
		if status == "" || a.Status == status {
			matches = append(matches, newAuctionResponse(a))
		}
	}

	return matches, nil
}
