package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionStatus enumerates the auction lifecycle states.
type AuctionStatus string

const (
	AuctionStatusNotStarted AuctionStatus = "NotStarted"
	AuctionStatusOnGoing    AuctionStatus = "OnGoing"
	AuctionStatusClosed     AuctionStatus = "Closed"
)

// auctionTransitions is the allowed state graph. Closed is terminal.
var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	AuctionStatusNotStarted: {AuctionStatusOnGoing},
	AuctionStatusOnGoing:    {AuctionStatusClosed},
	AuctionStatusClosed:     {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to AuctionStatus) bool {
	for _, s := range auctionTransitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// Bid is a single accepted bid. Immutable once created; owned by exactly
// one auction and never removed.
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	PlacedAt  time.Time
}

// NewBid creates a bid with a fresh id.
func NewBid(auctionID, bidderID uuid.UUID, amount decimal.Decimal, placedAt time.Time) Bid {
	return Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  placedAt,
	}
}

// Auction pairs one vehicle with an append-only bid sequence and a status.
// HighestBid and HighestBidder cache the winning bid; both are zero-valued
// while no bid has been accepted.
type Auction struct {
	ID            uuid.UUID
	VehicleID     uuid.UUID
	Status        AuctionStatus
	Bids          []Bid
	HighestBid    decimal.Decimal
	HighestBidder uuid.UUID
	StartedAt     *time.Time
	ClosedAt      *time.Time
}

// NewAuction creates an auction for the given vehicle in state NotStarted
// with no bids.
func NewAuction(vehicleID uuid.UUID) *Auction {
	return &Auction{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		Status:    AuctionStatusNotStarted,
		Bids:      []Bid{},
	}
}

// HasVehicle reports whether the auction references a vehicle.
func (a *Auction) HasVehicle() bool {
	return a.VehicleID != uuid.Nil
}

// Start transitions the auction to OnGoing and records the start time.
// Returns ErrAuctionAlreadyStarted or ErrAuctionAlreadyClosed when the
// transition is not allowed from the current status.
func (a *Auction) Start(now time.Time) error {
	switch a.Status {
	case AuctionStatusOnGoing:
		return ErrAuctionAlreadyStarted
	case AuctionStatusClosed:
		return ErrAuctionAlreadyClosed
	}

	a.Status = AuctionStatusOnGoing
	t := now
	a.StartedAt = &t

	return nil
}

// CloseOut transitions the auction to Closed, preserving the cached highest
// bid and bidder as the final price and winner. Returns ErrAuctionNotActive
// unless the auction is ongoing, and ErrAuctionHasNoBids when no bid has
// been accepted.
func (a *Auction) CloseOut(now time.Time) error {
	if a.Status != AuctionStatusOnGoing {
		return ErrAuctionNotActive
	}

	if len(a.Bids) == 0 {
		return ErrAuctionHasNoBids
	}

	a.Status = AuctionStatusClosed
	t := now
	a.ClosedAt = &t

	return nil
}

// CurrentHighest returns the maximum amount among existing bids, or zero
// when the auction has none.
func (a *Auction) CurrentHighest() decimal.Decimal {
	highest := decimal.Zero

	for _, b := range a.Bids {
		if b.Amount.GreaterThan(highest) {
			highest = b.Amount
		}
	}

	return highest
}

// AppendBid appends an accepted bid and updates the cached highest bid and
// bidder. The caller is responsible for having validated the amount.
func (a *Auction) AppendBid(bid Bid) {
	a.Bids = append(a.Bids, bid)
	a.HighestBid = bid.Amount
	a.HighestBidder = bid.BidderID
}

// BidsByBidder returns this bidder's bids in the auction, in insertion order.
func (a *Auction) BidsByBidder(bidderID uuid.UUID) []Bid {
	var bids []Bid

	for _, b := range a.Bids {
		if b.BidderID == bidderID {
			bids = append(bids, b)
		}
	}

	return bids
}

// Clone returns a deep copy so repository callers never alias store-owned
// memory.
func (a *Auction) Clone() *Auction {
	clone := *a
	clone.Bids = append([]Bid(nil), a.Bids...)

	if a.StartedAt != nil {
		t := *a.StartedAt
		clone.StartedAt = &t
	}

	if a.ClosedAt != nil {
		t := *a.ClosedAt
		clone.ClosedAt = &t
	}

	return &clone
}
