package auction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/repo/auction"
)

func TestMemoryRepository_Add(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	vehicleID := uuid.New()

	if err := repo.Add(ctx, domain.NewAuction(vehicleID)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := repo.Add(ctx, domain.NewAuction(vehicleID))
	if !errors.Is(err, domain.ErrAuctionAlreadyExistsForVehicle) {
		t.Errorf("Add() duplicate vehicle error = %v, want ErrAuctionAlreadyExistsForVehicle", err)
	}
}

func TestMemoryRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrAuctionNotFound) {
		t.Errorf("GetByID() error = %v, want ErrAuctionNotFound", err)
	}
}

func TestMemoryRepository_StartAuction(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	a := domain.NewAuction(uuid.New())
	if err := repo.Add(ctx, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	started, err := repo.StartAuction(ctx, a.ID, now)
	if err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	if started.Status != domain.AuctionStatusOnGoing {
		t.Errorf("StartAuction() status = %v, want OnGoing", started.Status)
	}

	if started.StartedAt == nil || !started.StartedAt.Equal(now) {
		t.Errorf("StartAuction() startedAt = %v, want %v", started.StartedAt, now)
	}

	if _, err := repo.StartAuction(ctx, a.ID, now); !errors.Is(err, domain.ErrAuctionAlreadyStarted) {
		t.Errorf("StartAuction() twice error = %v, want ErrAuctionAlreadyStarted", err)
	}

	if _, err := repo.StartAuction(ctx, uuid.New(), now); !errors.Is(err, domain.ErrAuctionNotFound) {
		t.Errorf("StartAuction() missing error = %v, want ErrAuctionNotFound", err)
	}
}

func TestMemoryRepository_PlaceBid(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	bidderID := uuid.New()

	a := domain.NewAuction(uuid.New())
	if err := repo.Add(ctx, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Bidding before the auction started is rejected.
	_, err := repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, bidderID, decimal.NewFromInt(100), now))
	if !errors.Is(err, domain.ErrAuctionNotActive) {
		t.Fatalf("PlaceBid() on not started auction error = %v, want ErrAuctionNotActive", err)
	}

	if _, err := repo.StartAuction(ctx, a.ID, now); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	got, err := repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, bidderID, decimal.NewFromInt(100), now))
	if err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	if !got.HighestBid.Equal(decimal.NewFromInt(100)) || got.HighestBidder != bidderID {
		t.Errorf("PlaceBid() highest = %v by %v, want 100 by %v", got.HighestBid, got.HighestBidder, bidderID)
	}

	// A tie with the current highest is rejected.
	_, err = repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(100), now))
	if !errors.Is(err, domain.ErrBidTooLow) {
		t.Errorf("PlaceBid() tie error = %v, want ErrBidTooLow", err)
	}
}

func TestMemoryRepository_CloseAuction(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	bidderID := uuid.New()

	a := domain.NewAuction(uuid.New())
	if err := repo.Add(ctx, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if _, err := repo.CloseAuction(ctx, a.ID, now); !errors.Is(err, domain.ErrAuctionNotActive) {
		t.Fatalf("CloseAuction() on not started auction error = %v, want ErrAuctionNotActive", err)
	}

	if _, err := repo.StartAuction(ctx, a.ID, now); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	if _, err := repo.CloseAuction(ctx, a.ID, now); !errors.Is(err, domain.ErrAuctionHasNoBids) {
		t.Fatalf("CloseAuction() without bids error = %v, want ErrAuctionHasNoBids", err)
	}

	if _, err := repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, bidderID, decimal.NewFromInt(9500), now)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	closed, err := repo.CloseAuction(ctx, a.ID, now)
	if err != nil {
		t.Fatalf("CloseAuction() error = %v", err)
	}

	if closed.Status != domain.AuctionStatusClosed {
		t.Errorf("CloseAuction() status = %v, want Closed", closed.Status)
	}

	if !closed.HighestBid.Equal(decimal.NewFromInt(9500)) || closed.HighestBidder != bidderID {
		t.Errorf("CloseAuction() winner = %v at %v, want %v at 9500", closed.HighestBidder, closed.HighestBid, bidderID)
	}

	if _, err := repo.CloseAuction(ctx, a.ID, now); !errors.Is(err, domain.ErrAuctionNotActive) {
		t.Errorf("CloseAuction() twice error = %v, want ErrAuctionNotActive", err)
	}
}

func TestMemoryRepository_ExistsForVehicle(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	vehicleID := uuid.New()
	bidderID := uuid.New()

	a := domain.NewAuction(vehicleID)
	if err := repo.Add(ctx, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if exists, err := repo.ExistsForVehicle(ctx, vehicleID); err != nil || !exists {
		t.Errorf("ExistsForVehicle() = %v, %v, want true", exists, err)
	}

	// A closed auction still blocks the vehicle.
	if _, err := repo.StartAuction(ctx, a.ID, now); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	if _, err := repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, bidderID, decimal.NewFromInt(1), now)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	if _, err := repo.CloseAuction(ctx, a.ID, now); err != nil {
		t.Fatalf("CloseAuction() error = %v", err)
	}

	if exists, err := repo.ExistsForVehicle(ctx, vehicleID); err != nil || !exists {
		t.Errorf("ExistsForVehicle() after close = %v, %v, want true", exists, err)
	}

	if exists, err := repo.ExistsForVehicle(ctx, uuid.New()); err != nil || exists {
		t.Errorf("ExistsForVehicle() for other vehicle = %v, %v, want false", exists, err)
	}
}

func TestMemoryRepository_HasBidsByBidder(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	bidderID := uuid.New()

	a := domain.NewAuction(uuid.New())
	if err := repo.Add(ctx, a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if has, err := repo.HasBidsByBidder(ctx, bidderID); err != nil || has {
		t.Errorf("HasBidsByBidder() = %v, %v, want false", has, err)
	}

	if _, err := repo.StartAuction(ctx, a.ID, now); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	if _, err := repo.PlaceBid(ctx, a.ID, domain.NewBid(a.ID, bidderID, decimal.NewFromInt(1), now)); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}

	if has, err := repo.HasBidsByBidder(ctx, bidderID); err != nil || !has {
		t.Errorf("HasBidsByBidder() = %v, %v, want true", has, err)
	}
}

func TestMemoryRepository_GetAllPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	repo := auction.NewMemoryRepository()
	ctx := context.Background()

	first := domain.NewAuction(uuid.New())
	second := domain.NewAuction(uuid.New())

	for _, a := range []*domain.Auction{first, second} {
		if err := repo.Add(ctx, a); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}

	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Error("GetAll() did not preserve insertion order")
	}
}
