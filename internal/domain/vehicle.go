package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleType enumerates the supported vehicle kinds. The type is fixed at
// creation and determines which type-specific attribute is meaningful.
type VehicleType string

const (
	VehicleTypeHatchback VehicleType = "Hatchback"
	VehicleTypeSedan     VehicleType = "Sedan"
	VehicleTypeSUV       VehicleType = "SUV"
	VehicleTypeTruck     VehicleType = "Truck"
)

// ParseVehicleType maps a request string onto a VehicleType.
// Returns ErrInvalidVehicleType for anything outside the closed set.
func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(s) {
	case VehicleTypeHatchback, VehicleTypeSedan, VehicleTypeSUV, VehicleTypeTruck:
		return VehicleType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVehicleType, s)
	}
}

// Vehicle is a listed vehicle. Exactly one of the type-specific attributes
// (NumDoors, NumSeats, LoadCapacity) is meaningful, selected by Type; the
// others stay zero.
type Vehicle struct {
	ID           uuid.UUID
	Manufacturer string
	Model        string
	Year         int
	StartingBid  decimal.Decimal
	Type         VehicleType

	NumDoors     int             // Hatchback, Sedan
	NumSeats     int             // SUV
	LoadCapacity decimal.Decimal // Truck
}

// NewHatchback creates a hatchback with a fresh id.
func NewHatchback(manufacturer, model string, year int, startingBid decimal.Decimal, numDoors int) *Vehicle {
	return &Vehicle{
		ID:           uuid.New(),
		Manufacturer: manufacturer,
		Model:        model,
		Year:         year,
		StartingBid:  startingBid,
		Type:         VehicleTypeHatchback,
		NumDoors:     numDoors,
	}
}

// NewSedan creates a sedan with a fresh id.
func NewSedan(manufacturer, model string, year int, startingBid decimal.Decimal, numDoors int) *Vehicle {
	return &Vehicle{
		ID:           uuid.New(),
		Manufacturer: manufacturer,
		Model:        model,
		Year:         year,
		StartingBid:  startingBid,
		Type:         VehicleTypeSedan,
		NumDoors:     numDoors,
	}
}

// NewSUV creates an SUV with a fresh id.
func NewSUV(manufacturer, model string, year int, startingBid decimal.Decimal, numSeats int) *Vehicle {
	return &Vehicle{
		ID:           uuid.New(),
		Manufacturer: manufacturer,
		Model:        model,
		Year:         year,
		StartingBid:  startingBid,
		Type:         VehicleTypeSUV,
		NumSeats:     numSeats,
	}
}

// NewTruck creates a truck with a fresh id.
func NewTruck(manufacturer, model string, year int, startingBid, loadCapacity decimal.Decimal) *Vehicle {
	return &Vehicle{
		ID:           uuid.New(),
		Manufacturer: manufacturer,
		Model:        model,
		Year:         year,
		StartingBid:  startingBid,
		Type:         VehicleTypeTruck,
		LoadCapacity: loadCapacity,
	}
}

// VehicleFilter selects vehicles by the conjunction of its set fields.
// Zero-valued fields impose no constraint.
type VehicleFilter struct {
	Manufacturer string // case-insensitive substring
	Model        string // case-insensitive substring
	Type         VehicleType
	Year         *int
	StartingBid  *decimal.Decimal
}

// Matches reports whether the vehicle satisfies every set filter field.
func (f VehicleFilter) Matches(v *Vehicle) bool {
	if f.Manufacturer != "" &&
		!strings.Contains(strings.ToLower(v.Manufacturer), strings.ToLower(f.Manufacturer)) {
		return false
	}

	if f.Model != "" &&
		!strings.Contains(strings.ToLower(v.Model), strings.ToLower(f.Model)) {
		return false
	}

	if f.Type != "" && v.Type != f.Type {
		return false
	}

	if f.Year != nil && v.Year != *f.Year {
		return false
	}

	if f.StartingBid != nil && !v.StartingBid.Equal(*f.StartingBid) {
		return false
	}

	return true
}
