package vehicle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// SQLiteRepositoryConfig holds configuration for the SQLite vehicle repository.
type SQLiteRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/auctionsvc.db"`
}

// SQLiteRepository implements Repository using SQLite as the storage backend.
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
	log := logging.GetLogger("repo.vehicle.sqlite_vehicle_repository").With(
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
		CREATE TABLE IF NOT EXISTS vehicles (
			id            TEXT    PRIMARY KEY,
			manufacturer  TEXT    NOT NULL,
			model         TEXT    NOT NULL,
			year          INTEGER NOT NULL,
			starting_bid  TEXT    NOT NULL,
			type          TEXT    NOT NULL,
			num_doors     INTEGER NOT NULL DEFAULT 0,
			num_seats     INTEGER NOT NULL DEFAULT 0,
			load_capacity TEXT    NOT NULL DEFAULT '0',
			created_at    INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Add implements Repository.Add using SQLite.
func (r *SQLiteRepository) Add(ctx context.Context, v *domain.Vehicle) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO vehicles
			(id, manufacturer, model, year, starting_bid, type, num_doors, num_seats, load_capacity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID.String(),
		v.Manufacturer,
		v.Model,
		v.Year,
		v.StartingBid.String(),
		string(v.Type),
		v.NumDoors,
		v.NumSeats,
		v.LoadCapacity.String(),
		time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}

	return nil
}

// GetByID implements Repository.GetByID using SQLite.
func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, manufacturer, model, year, starting_bid, type, num_doors, num_seats, load_capacity
		FROM vehicles WHERE id = ?`,
		id.String(),
	)

	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, id), err)
		}

		return nil, fmt.Errorf("query vehicle: %w", err)
	}

	return v, nil
}

// Update implements Repository.Update using SQLite.
func (r *SQLiteRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicles
		SET manufacturer = ?, model = ?, year = ?, starting_bid = ?, num_doors = ?, num_seats = ?, load_capacity = ?
		WHERE id = ?`,
		v.Manufacturer,
		v.Model,
		v.Year,
		v.StartingBid.String(),
		v.NumDoors,
		v.NumSeats,
		v.LoadCapacity.String(),
		v.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, v.ID)
	}

	return nil
}

// Delete implements Repository.Delete using SQLite.
func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrVehicleNotFound, id)
	}

	return nil
}

// Search implements Repository.Search using SQLite. Substring matches use
// LIKE, which is case-insensitive for ASCII, matching the memory backend.
func (r *SQLiteRepository) Search(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, manufacturer, model, year, starting_bid, type, num_doors, num_seats, load_capacity
		FROM vehicles WHERE 1=1`

	var args []any

	if filter.Manufacturer != "" {
		query += " AND manufacturer LIKE '%' || ? || '%'"
		args = append(args, filter.Manufacturer)
	}

	if filter.Model != "" {
		query += " AND model LIKE '%' || ? || '%'"
		args = append(args, filter.Model)
	}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}

	if filter.Year != nil {
		query += " AND year = ?"
		args = append(args, *filter.Year)
	}

	if filter.StartingBid != nil {
		query += " AND CAST(starting_bid AS REAL) = CAST(? AS REAL)"
		args = append(args, filter.StartingBid.String())
	}

	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0)

	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}

		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		v                       domain.Vehicle
		idStr, bidStr, capacity string
		typeStr                 string
	)

	if err := row.Scan(
		&idStr, &v.Manufacturer, &v.Model, &v.Year, &bidStr, &typeStr,
		&v.NumDoors, &v.NumSeats, &capacity,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}

	startingBid, err := decimal.NewFromString(bidStr)
	if err != nil {
		return nil, fmt.Errorf("parse starting bid: %w", err)
	}

	loadCapacity, err := decimal.NewFromString(capacity)
	if err != nil {
		return nil, fmt.Errorf("parse load capacity: %w", err)
	}

	v.ID = id
	v.StartingBid = startingBid
	v.LoadCapacity = loadCapacity
	v.Type = domain.VehicleType(typeStr)

	return &v, nil
}
