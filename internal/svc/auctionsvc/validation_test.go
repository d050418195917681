package auctionsvc_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/svc/auctionsvc"
)

func validAddVehicleRequest() auctionsvc.AddVehicleRequest {
	doors := 4

	return auctionsvc.AddVehicleRequest{
		Manufacturer: "Toyota",
		Model:        "Corolla",
		Year:         2021,
		StartingBid:  decimal.NewFromInt(8000),
		Type:         "Sedan",
		NumDoors:     &doors,
	}
}

func TestAddVehicleRequest_Validate(t *testing.T) {
	t.Parallel()

	seats := 5
	capacity := decimal.NewFromInt(-1)

	tests := []struct {
		name      string
		mutate    func(r *auctionsvc.AddVehicleRequest)
		wantField string
	}{
		{"valid request", func(*auctionsvc.AddVehicleRequest) {}, ""},
		{
			"missing manufacturer",
			func(r *auctionsvc.AddVehicleRequest) { r.Manufacturer = "" },
			"manufacturer",
		},
		{
			"missing model",
			func(r *auctionsvc.AddVehicleRequest) { r.Model = "" },
			"model",
		},
		{
			"year before first automobile",
			func(r *auctionsvc.AddVehicleRequest) { r.Year = 1800 },
			"year",
		},
		{
			"year in the future",
			func(r *auctionsvc.AddVehicleRequest) { r.Year = time.Now().Year() + 1 },
			"year",
		},
		{
			"zero starting bid",
			func(r *auctionsvc.AddVehicleRequest) { r.StartingBid = decimal.Zero },
			"startingBid",
		},
		{
			"seats on a sedan",
			func(r *auctionsvc.AddVehicleRequest) { r.NumSeats = &seats },
			"numberOfSeats",
		},
		{
			"negative truck load capacity",
			func(r *auctionsvc.AddVehicleRequest) {
				r.Type = "Truck"
				r.NumDoors = nil
				r.LoadCapacity = &capacity
			},
			"loadCapacity",
		},
		{
			// Unknown types pass field validation; the domain rejects them.
			"unknown type",
			func(r *auctionsvc.AddVehicleRequest) { r.Type = "Motorcycle" },
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validAddVehicleRequest()
			tt.mutate(&req)

			errs := req.Validate()

			if tt.wantField == "" {
				if errs != nil {
					t.Errorf("Validate() = %v, want nil", errs)
				}

				return
			}

			if len(errs[tt.wantField]) == 0 {
				t.Errorf("Validate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestUpdateVehicleRequest_Validate(t *testing.T) {
	t.Parallel()

	empty := ""
	badYear := 1700

	tests := []struct {
		name      string
		req       auctionsvc.UpdateVehicleRequest
		wantField string
	}{
		{
			"valid request",
			auctionsvc.UpdateVehicleRequest{ID: uuid.New(), Type: "Sedan"},
			"",
		},
		{
			"missing id",
			auctionsvc.UpdateVehicleRequest{Type: "Sedan"},
			"id",
		},
		{
			"missing type",
			auctionsvc.UpdateVehicleRequest{ID: uuid.New()},
			"type",
		},
		{
			"empty manufacturer",
			auctionsvc.UpdateVehicleRequest{ID: uuid.New(), Type: "Sedan", Manufacturer: &empty},
			"manufacturer",
		},
		{
			"invalid year",
			auctionsvc.UpdateVehicleRequest{ID: uuid.New(), Type: "Sedan", Year: &badYear},
			"year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := tt.req.Validate()

			if tt.wantField == "" {
				if errs != nil {
					t.Errorf("Validate() = %v, want nil", errs)
				}

				return
			}

			if len(errs[tt.wantField]) == 0 {
				t.Errorf("Validate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestPlaceBidRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       auctionsvc.PlaceBidRequest
		wantField string
	}{
		{
			"valid request",
			auctionsvc.PlaceBidRequest{
				AuctionID: uuid.New(),
				BidderID:  uuid.New(),
				Amount:    decimal.NewFromInt(100),
			},
			"",
		},
		{
			"missing auction id",
			auctionsvc.PlaceBidRequest{BidderID: uuid.New(), Amount: decimal.NewFromInt(100)},
			"auctionId",
		},
		{
			"missing bidder id",
			auctionsvc.PlaceBidRequest{AuctionID: uuid.New(), Amount: decimal.NewFromInt(100)},
			"bidderId",
		},
		{
			"zero amount",
			auctionsvc.PlaceBidRequest{AuctionID: uuid.New(), BidderID: uuid.New()},
			"amount",
		},
		{
			"negative amount",
			auctionsvc.PlaceBidRequest{
				AuctionID: uuid.New(),
				BidderID:  uuid.New(),
				Amount:    decimal.NewFromInt(-5),
			},
			"amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := tt.req.Validate()

			if tt.wantField == "" {
				if errs != nil {
					t.Errorf("Validate() = %v, want nil", errs)
				}

				return
			}

			if len(errs[tt.wantField]) == 0 {
				t.Errorf("Validate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestCreateBidderRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       auctionsvc.CreateBidderRequest
		wantField string
	}{
		{"valid request", auctionsvc.CreateBidderRequest{Name: "Alice", Email: "alice@example.com"}, ""},
		{"missing name", auctionsvc.CreateBidderRequest{Email: "alice@example.com"}, "name"},
		{"missing email", auctionsvc.CreateBidderRequest{Name: "Alice"}, "email"},
		{"malformed email", auctionsvc.CreateBidderRequest{Name: "Alice", Email: "not-an-email"}, "email"},
		{"email without tld", auctionsvc.CreateBidderRequest{Name: "Alice", Email: "alice@example"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := tt.req.Validate()

			if tt.wantField == "" {
				if errs != nil {
					t.Errorf("Validate() = %v, want nil", errs)
				}

				return
			}

			if len(errs[tt.wantField]) == 0 {
				t.Errorf("Validate() = %v, want error on %q", errs, tt.wantField)
			}
		})
	}
}
