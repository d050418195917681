package domain

import "errors"

var (
	// ErrVehicleNotFound is returned when looking up a non-existent vehicle.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrNoVehiclesFound is returned by vehicle lookups that report absence
	// without naming a specific id.
	ErrNoVehiclesFound = errors.New("no vehicles found")
	// ErrInvalidVehicleType is returned when a request names an unknown vehicle type.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
	// ErrCannotUpdateVehicleType is returned when an update tries to change
	// a vehicle's type after creation.
	ErrCannotUpdateVehicleType = errors.New("cannot update vehicle type")
	// ErrVehicleHasActiveAuction is returned when updating or deleting a vehicle
	// that is referenced by an auction.
	ErrVehicleHasActiveAuction = errors.New("vehicle has an active auction")

	// ErrAuctionNotFound is returned when looking up a non-existent auction.
	ErrAuctionNotFound = errors.New("auction not found")
	// ErrAuctionAlreadyExistsForVehicle is returned when creating a second auction
	// for the same vehicle.
	ErrAuctionAlreadyExistsForVehicle = errors.New("auction already exists for vehicle")
	// ErrAuctionAlreadyStarted is returned when starting an auction that is ongoing.
	ErrAuctionAlreadyStarted = errors.New("auction already started")
	// ErrAuctionAlreadyClosed is returned when starting an auction that is closed.
	ErrAuctionAlreadyClosed = errors.New("auction already closed")
	// ErrAuctionCannotStart is returned when starting an auction without a vehicle.
	ErrAuctionCannotStart = errors.New("auction cannot start without a vehicle")
	// ErrAuctionNotActive is returned when bidding on or closing an auction
	// that is not ongoing.
	ErrAuctionNotActive = errors.New("auction not active")
	// ErrAuctionHasNoVehicle is returned when bidding on an auction whose
	// vehicle reference is absent.
	ErrAuctionHasNoVehicle = errors.New("auction has no vehicle")
	// ErrAuctionHasNoBids is returned when closing an auction without bids.
	ErrAuctionHasNoBids = errors.New("auction has no bids")
	// ErrBidBelowStartingPrice is returned when a bid does not exceed the
	// vehicle's starting bid.
	ErrBidBelowStartingPrice = errors.New("bid below starting price")
	// ErrBidTooLow is returned when a bid does not exceed the current highest bid.
	ErrBidTooLow = errors.New("bid too low")

	// ErrBidderNotFound is returned when looking up a non-existent bidder.
	ErrBidderNotFound = errors.New("bidder not found")
	// ErrBidderAlreadyExists is returned when registering an email that is
	// already taken.
	ErrBidderAlreadyExists = errors.New("bidder already exists")
	// ErrBidderHasPlacedBids is returned when deleting a bidder who has placed
	// at least one bid.
	ErrBidderHasPlacedBids = errors.New("bidder has placed bids")
)
