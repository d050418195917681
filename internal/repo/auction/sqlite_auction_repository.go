package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// SQLiteRepositoryConfig holds configuration for the SQLite auction repository.
type SQLiteRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/auctionsvc.db"`
}

// SQLiteRepository implements Repository using SQLite as the storage backend.
// Auctions and their bids live in two tables; the one-auction-per-vehicle
// invariant is enforced in depth by a UNIQUE constraint.
type SQLiteRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepositoryFactory creates a factory function that returns a new
// SQLiteRepository.
func SQLiteRepositoryFactory(cfg SQLiteRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteRepository(cfg)
	}
}

// NewSQLiteRepository creates a new SQLiteRepository with the given
// configuration. It initializes the database connection and creates the
// schema if needed.
func NewSQLiteRepository(cfg SQLiteRepositoryConfig) (*SQLiteRepository, error) {
	log := logging.GetLogger("repo.auction.sqlite_auction_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS auctions (
			id             TEXT    PRIMARY KEY,
			vehicle_id     TEXT    UNIQUE NOT NULL,
			status         TEXT    NOT NULL,
			highest_bid    TEXT,
			highest_bidder TEXT,
			started_at     INTEGER,
			closed_at      INTEGER,
			created_at     INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bids (
			id         TEXT    PRIMARY KEY,
			auction_id TEXT    NOT NULL REFERENCES auctions(id),
			bidder_id  TEXT    NOT NULL,
			amount     TEXT    NOT NULL,
			placed_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids(auction_id);
		CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id);
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Add implements Repository.Add using SQLite.
func (r *SQLiteRepository) Add(ctx context.Context, a *domain.Auction) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auctions (id, vehicle_id, status, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID.String(),
		a.VehicleID.String(),
		string(a.Status),
		time.Now().Unix(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(
					fmt.Errorf("%w: %s", domain.ErrAuctionAlreadyExistsForVehicle, a.VehicleID),
					err,
				)
			}
		}

		return fmt.Errorf("insert auction: %w", err)
	}

	return nil
}

// GetByID implements Repository.GetByID using SQLite.
func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return r.getByID(ctx, id)
}

// GetAll implements Repository.GetAll using SQLite.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vehicle_id, status, highest_bid, highest_bidder, started_at, closed_at
		FROM auctions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query auctions: %w", err)
	}
	defer rows.Close()

	all := make([]*domain.Auction, 0)

	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}

		all = append(all, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auctions: %w", err)
	}

	for _, a := range all {
		if a.Bids, err = r.bidsForAuction(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// ExistsForVehicle implements Repository.ExistsForVehicle using SQLite.
func (r *SQLiteRepository) ExistsForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var count int

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM auctions WHERE vehicle_id = ?",
		vehicleID.String(),
	).Scan(&count); err != nil {
		return false, fmt.Errorf("count auctions: %w", err)
	}

	return count > 0, nil
}

// HasBidsByBidder implements Repository.HasBidsByBidder using SQLite.
func (r *SQLiteRepository) HasBidsByBidder(ctx context.Context, bidderID uuid.UUID) (bool, error) {
	var count int

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM bids WHERE bidder_id = ?",
		bidderID.String(),
	).Scan(&count); err != nil {
		return false, fmt.Errorf("count bids: %w", err)
	}

	return count > 0, nil
}

// StartAuction implements Repository.StartAuction using SQLite.
func (r *SQLiteRepository) StartAuction(ctx context.Context, id uuid.UUID, startedAt time.Time) (*domain.Auction, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	a, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.Start(startedAt); err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE auctions SET status = ?, started_at = ? WHERE id = ?",
		string(a.Status), startedAt.UnixNano(), id.String(),
	); err != nil {
		return nil, fmt.Errorf("update auction: %w", err)
	}

	return a, nil
}

// CloseAuction implements Repository.CloseAuction using SQLite.
func (r *SQLiteRepository) CloseAuction(ctx context.Context, id uuid.UUID, closedAt time.Time) (*domain.Auction, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	a, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.CloseOut(closedAt); err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE auctions SET status = ?, closed_at = ? WHERE id = ?",
		string(a.Status), closedAt.UnixNano(), id.String(),
	); err != nil {
		return nil, fmt.Errorf("update auction: %w", err)
	}

	return a, nil
}

// PlaceBid implements Repository.PlaceBid using SQLite.
func (r *SQLiteRepository) PlaceBid(ctx context.Context, auctionID uuid.UUID, bid domain.Bid) (*domain.Auction, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	a, err := r.getByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if a.Status != domain.AuctionStatusOnGoing {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuctionNotActive, auctionID)
	}

	if highest := a.CurrentHighest(); !bid.Amount.GreaterThan(highest) {
		return nil, fmt.Errorf("%w: %s is not greater than %s",
			domain.ErrBidTooLow, bid.Amount, highest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
		VALUES (?, ?, ?, ?, ?)`,
		bid.ID.String(),
		bid.AuctionID.String(),
		bid.BidderID.String(),
		bid.Amount.String(),
		bid.PlacedAt.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("insert bid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE auctions SET highest_bid = ?, highest_bidder = ? WHERE id = ?",
		bid.Amount.String(), bid.BidderID.String(), auctionID.String(),
	); err != nil {
		return nil, fmt.Errorf("update auction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	a.AppendBid(bid)

	return a, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) getByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, vehicle_id, status, highest_bid, highest_bidder, started_at, closed_at
		FROM auctions WHERE id = ?`,
		id.String(),
	)

	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(fmt.Errorf("%w: %s", domain.ErrAuctionNotFound, id), err)
		}

		return nil, fmt.Errorf("query auction: %w", err)
	}

	if a.Bids, err = r.bidsForAuction(ctx, a.ID); err != nil {
		return nil, err
	}

	return a, nil
}

func (r *SQLiteRepository) bidsForAuction(ctx context.Context, auctionID uuid.UUID) ([]domain.Bid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auction_id, bidder_id, amount, placed_at
		FROM bids WHERE auction_id = ? ORDER BY rowid`,
		auctionID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	bids := []domain.Bid{}

	for rows.Next() {
		var (
			b                     domain.Bid
			idStr, aIDStr, bIDStr string
			amountStr             string
			placedAt              int64
		)

		if err := rows.Scan(&idStr, &aIDStr, &bIDStr, &amountStr, &placedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}

		if b.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse bid id: %w", err)
		}

		if b.AuctionID, err = uuid.Parse(aIDStr); err != nil {
			return nil, fmt.Errorf("parse auction id: %w", err)
		}

		if b.BidderID, err = uuid.Parse(bIDStr); err != nil {
			return nil, fmt.Errorf("parse bidder id: %w", err)
		}

		if b.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}

		b.PlacedAt = time.Unix(0, placedAt)
		bids = append(bids, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}

	return bids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var (
		a                         domain.Auction
		idStr, vIDStr             string
		statusStr                 string
		highestBid, highestBidder sql.NullString
		startedAt, closedAt       sql.NullInt64
	)

	if err := row.Scan(&idStr, &vIDStr, &statusStr, &highestBid, &highestBidder, &startedAt, &closedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}

	vehicleID, err := uuid.Parse(vIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse vehicle id: %w", err)
	}

	a.ID = id
	a.VehicleID = vehicleID
	a.Status = domain.AuctionStatus(statusStr)
	a.Bids = []domain.Bid{}

	if highestBid.Valid {
		if a.HighestBid, err = decimal.NewFromString(highestBid.String); err != nil {
			return nil, fmt.Errorf("parse highest bid: %w", err)
		}
	}

	if highestBidder.Valid {
		if a.HighestBidder, err = uuid.Parse(highestBidder.String); err != nil {
			return nil, fmt.Errorf("parse highest bidder: %w", err)
		}
	}

	if startedAt.Valid {
		t := time.Unix(0, startedAt.Int64)
		a.StartedAt = &t
	}

	if closedAt.Valid {
		t := time.Unix(0, closedAt.Int64)
		a.ClosedAt = &t
	}

	return &a, nil
}
