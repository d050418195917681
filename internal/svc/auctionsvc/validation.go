package auctionsvc

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// minVehicleYear is the year of the first production automobile.
const minVehicleYear = 1886

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldErrors maps request field names to validation messages. A nil or
// empty map means the request is valid. Field validation runs before any
// domain logic.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) orNil() FieldErrors {
	if len(e) == 0 {
		return nil
	}

	return e
}

// Validate checks required fields, the year range and the type-conditional
// attribute rules: doors apply to hatchbacks and sedans, seats to SUVs and
// load capacity to trucks; non-applicable attributes must be absent or zero.
func (r AddVehicleRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.Manufacturer == "" {
		errs.add("manufacturer", "Manufacturer is required.")
	}

	if r.Model == "" {
		errs.add("model", "Model is required.")
	}

	if r.Year < minVehicleYear || r.Year > time.Now().Year() {
		errs.add("year", "Vehicle year must be valid and not in the future.")
	}

	if !r.StartingBid.IsPositive() {
		errs.add("startingBid", "Starting bid must be greater than zero.")
	}

	switch r.Type {
	case "Hatchback", "Sedan":
		if r.NumSeats != nil && *r.NumSeats != 0 {
			errs.add("numberOfSeats", "Number of seats is not applicable for this type.")
		}

		if r.LoadCapacity != nil && !r.LoadCapacity.IsZero() {
			errs.add("loadCapacity", "Load capacity is not applicable for this type.")
		}
	case "SUV":
		if r.NumDoors != nil && *r.NumDoors != 0 {
			errs.add("numberOfDoors", "Number of doors is not applicable for SUVs.")
		}

		if r.LoadCapacity != nil && !r.LoadCapacity.IsZero() {
			errs.add("loadCapacity", "Load capacity is not applicable for SUVs.")
		}
	case "Truck":
		if r.LoadCapacity != nil && !r.LoadCapacity.IsPositive() {
			errs.add("loadCapacity", "Trucks must have a valid load capacity.")
		}

		if r.NumDoors != nil && *r.NumDoors != 0 {
			errs.add("numberOfDoors", "Number of doors is not applicable for trucks.")
		}

		if r.NumSeats != nil && *r.NumSeats != 0 {
			errs.add("numberOfSeats", "Number of seats is not applicable for trucks.")
		}
	}

	return errs.orNil()
}

// Validate checks the id and the ranges of any supplied fields.
func (r UpdateVehicleRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.ID == uuid.Nil {
		errs.add("id", "Id is required.")
	}

	if r.Type == "" {
		errs.add("type", "Type is required.")
	}

	if r.Manufacturer != nil && *r.Manufacturer == "" {
		errs.add("manufacturer", "Manufacturer must not be empty.")
	}

	if r.Model != nil && *r.Model == "" {
		errs.add("model", "Model must not be empty.")
	}

	if r.Year != nil && (*r.Year < minVehicleYear || *r.Year > time.Now().Year()) {
		errs.add("year", "Vehicle year must be valid and not in the future.")
	}

	if r.StartingBid != nil && !r.StartingBid.IsPositive() {
		errs.add("startingBid", "Starting bid must be greater than zero.")
	}

	return errs.orNil()
}

// Validate checks that the vehicle id is present.
func (r AddAuctionRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.VehicleID == uuid.Nil {
		errs.add("vehicleId", "VehicleId is required.")
	}

	return errs.orNil()
}

// Validate checks that the auction id is present.
func (r StartAuctionRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.AuctionID == uuid.Nil {
		errs.add("auctionId", "AuctionId is required.")
	}

	return errs.orNil()
}

// Validate checks that the auction id is present.
func (r CloseAuctionRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.AuctionID == uuid.Nil {
		errs.add("auctionId", "AuctionId is required.")
	}

	return errs.orNil()
}

// Validate checks the ids and that the amount is positive.
func (r PlaceBidRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.AuctionID == uuid.Nil {
		errs.add("auctionId", "AuctionId is required.")
	}

	if r.BidderID == uuid.Nil {
		errs.add("bidderId", "BidderId is required.")
	}

	if !r.Amount.IsPositive() {
		errs.add("amount", "Bid amount must be greater than zero.")
	}

	return errs.orNil()
}

// Validate checks that the name is present and the email is well-formed.
func (r CreateBidderRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	if r.Name == "" {
		errs.add("name", "Name is required.")
	}

	if r.Email == "" || !emailPattern.MatchString(r.Email) {
		errs.add("email", "Valid email is required.")
	}

	return errs.orNil()
}
