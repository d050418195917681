package auctionsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
	"github.com/mkrupp/carauction/internal/repo/auction"
	"github.com/mkrupp/carauction/internal/repo/vehicle"
)

// AddVehicleRequest carries the fields for listing a new vehicle. The type
// determines which of the optional attributes applies.
type AddVehicleRequest struct {
	Manufacturer string           `json:"manufacturer"`
	Model        string           `json:"model"`
	Year         int              `json:"year"`
	StartingBid  decimal.Decimal  `json:"startingBid"`
	Type         string           `json:"type"`
	NumDoors     *int             `json:"numberOfDoors,omitempty"`
	NumSeats     *int             `json:"numberOfSeats,omitempty"`
	LoadCapacity *decimal.Decimal `json:"loadCapacity,omitempty"`
}

// UpdateVehicleRequest carries a vehicle update. Omitted fields keep their
// prior values; the type must match the stored vehicle's type.
type UpdateVehicleRequest struct {
	ID           uuid.UUID        `json:"id"`
	Manufacturer *string          `json:"manufacturer,omitempty"`
	Model        *string          `json:"model,omitempty"`
	Year         *int             `json:"year,omitempty"`
	StartingBid  *decimal.Decimal `json:"startingBid,omitempty"`
	Type         string           `json:"type"`
	NumDoors     *int             `json:"numberOfDoors,omitempty"`
	NumSeats     *int             `json:"numberOfSeats,omitempty"`
	LoadCapacity *decimal.Decimal `json:"loadCapacity,omitempty"`
}

// VehicleResponse is the outward projection of a vehicle. Only the attribute
// matching the vehicle's type is present.
type VehicleResponse struct {
	ID           uuid.UUID        `json:"id"`
	Manufacturer string           `json:"manufacturer"`
	Model        string           `json:"model"`
	Year         int              `json:"year"`
	StartingBid  decimal.Decimal  `json:"startingBid"`
	Type         string           `json:"type"`
	NumDoors     *int             `json:"numberOfDoors,omitempty"`
	NumSeats     *int             `json:"numberOfSeats,omitempty"`
	LoadCapacity *decimal.Decimal `json:"loadCapacity,omitempty"`
}

func newVehicleResponse(v *domain.Vehicle) VehicleResponse {
	resp := VehicleResponse{
		ID:           v.ID,
		Manufacturer: v.Manufacturer,
		Model:        v.Model,
		Year:         v.Year,
		StartingBid:  v.StartingBid,
		Type:         string(v.Type),
	}

	switch v.Type {
	case domain.VehicleTypeHatchback, domain.VehicleTypeSedan:
		doors := v.NumDoors
		resp.NumDoors = &doors
	case domain.VehicleTypeSUV:
		seats := v.NumSeats
		resp.NumSeats = &seats
	case domain.VehicleTypeTruck:
		capacity := v.LoadCapacity
		resp.LoadCapacity = &capacity
	}

	return resp
}

// VehicleService implements the vehicle operations: listing, lookup, search,
// update and deletion, guarding the type-immutability and active-auction
// invariants.
type VehicleService struct {
	VehicleRepo vehicle.Repository
	AuctionRepo auction.Repository
	Log         logging.Logger
}

// NewVehicleService creates a new VehicleService on top of the given
// repositories. The auction repository is consulted for the active-auction
// guards only.
func NewVehicleService(vehicleRepo vehicle.Repository, auctionRepo auction.Repository) *VehicleService {
	return &VehicleService{
		VehicleRepo: vehicleRepo,
		AuctionRepo: auctionRepo,
		Log:         logging.GetLogger("svc.auctionsvc.vehicle_service"),
	}
}

// Add constructs a vehicle of the requested type and persists it.
// Returns ErrInvalidVehicleType for a type outside the closed set.
func (s *VehicleService) Add(ctx context.Context, req AddVehicleRequest) (_ VehicleResponse, err error) {
	log := s.Log.With(logging.Group("vehicle", "type", req.Type, "model", req.Model))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "add vehicle failed", "error", err)
		} else {
			log.DebugContext(ctx, "vehicle added")
		}
	}()

	typ, err := domain.ParseVehicleType(req.Type)
	if err != nil {
		return VehicleResponse{}, err
	}

	var v *domain.Vehicle

	switch typ {
	case domain.VehicleTypeHatchback:
		v = domain.NewHatchback(req.Manufacturer, req.Model, req.Year, req.StartingBid, intOrZero(req.NumDoors))
	case domain.VehicleTypeSedan:
		v = domain.NewSedan(req.Manufacturer, req.Model, req.Year, req.StartingBid, intOrZero(req.NumDoors))
	case domain.VehicleTypeSUV:
		v = domain.NewSUV(req.Manufacturer, req.Model, req.Year, req.StartingBid, intOrZero(req.NumSeats))
	case domain.VehicleTypeTruck:
		v = domain.NewTruck(req.Manufacturer, req.Model, req.Year, req.StartingBid, decimalOrZero(req.LoadCapacity))
	}

	if err := s.VehicleRepo.Add(ctx, v); err != nil {
		return VehicleResponse{}, fmt.Errorf("add vehicle: %w", err)
	}

	return newVehicleResponse(v), nil
}

// GetByID returns the vehicle with the given id.
// Reports absence as ErrNoVehiclesFound.
func (s *VehicleService) GetByID(ctx context.Context, id uuid.UUID) (VehicleResponse, error) {
	v, err := s.VehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return VehicleResponse{}, errors.Join(domain.ErrNoVehiclesFound, err)
		}

		return VehicleResponse{}, fmt.Errorf("get vehicle: %w", err)
	}

	return newVehicleResponse(v), nil
}

// Search returns all vehicles matching the conjunction of the set filter
// fields, in store order.
func (s *VehicleService) Search(ctx context.Context, filter domain.VehicleFilter) ([]VehicleResponse, error) {
	vehicles, err := s.VehicleRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}

	matches := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		matches = append(matches, newVehicleResponse(v))
	}

	return matches, nil
}

// Update overwrites the supplied fields of an existing vehicle. The type is
// immutable and a vehicle referenced by an auction cannot be updated.
func (s *VehicleService) Update(ctx context.Context, req UpdateVehicleRequest) (_ VehicleResponse, err error) {
	log := s.Log.With(logging.Group("vehicle", "id", req.ID.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update vehicle failed", "error", err)
		} else {
			log.DebugContext(ctx, "vehicle updated")
		}
	}()

	v, err := s.VehicleRepo.GetByID(ctx, req.ID)
	if err != nil {
		return VehicleResponse{}, fmt.Errorf("get vehicle: %w", err)
	}

	exists, err := s.AuctionRepo.ExistsForVehicle(ctx, req.ID)
	if err != nil {
		return VehicleResponse{}, fmt.Errorf("check auction: %w", err)
	} else if exists {
		return VehicleResponse{}, fmt.Errorf("%w: %s", domain.ErrVehicleHasActiveAuction, req.ID)
	}

	if req.Type != string(v.Type) {
		return VehicleResponse{}, fmt.Errorf("%w: %s -> %s", domain.ErrCannotUpdateVehicleType, v.Type, req.Type)
	}

	if req.Manufacturer != nil {
		v.Manufacturer = *req.Manufacturer
	}

	if req.Model != nil {
		v.Model = *req.Model
	}

	if req.Year != nil {
		v.Year = *req.Year
	}

	if req.StartingBid != nil {
		v.StartingBid = *req.StartingBid
	}

	// Only the attribute matching the stored type is applied.
	switch v.Type {
	case domain.VehicleTypeHatchback, domain.VehicleTypeSedan:
		if req.NumDoors != nil {
			v.NumDoors = *req.NumDoors
		}
	case domain.VehicleTypeSUV:
		if req.NumSeats != nil {
			v.NumSeats = *req.NumSeats
		}
	case domain.VehicleTypeTruck:
		if req.LoadCapacity != nil {
			v.LoadCapacity = *req.LoadCapacity
		}
	}

	if err := s.VehicleRepo.Update(ctx, v); err != nil {
		return VehicleResponse{}, fmt.Errorf("update vehicle: %w", err)
	}

	return newVehicleResponse(v), nil
}

// Delete removes a vehicle. A vehicle referenced by an auction cannot be
// deleted.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	log := s.Log.With(logging.Group("vehicle", "id", id.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete vehicle failed", "error", err)
		} else {
			log.DebugContext(ctx, "vehicle deleted")
		}
	}()

	if _, err := s.VehicleRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get vehicle: %w", err)
	}

	exists, err := s.AuctionRepo.ExistsForVehicle(ctx, id)
	if err != nil {
		return fmt.Errorf("check auction: %w", err)
	} else if exists {
		return fmt.Errorf("%w: %s", domain.ErrVehicleHasActiveAuction, id)
	}

	if err := s.VehicleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}

	return nil
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}

	return *p
}

func decimalOrZero(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}

	return *p
}
