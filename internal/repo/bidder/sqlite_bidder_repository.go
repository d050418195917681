package bidder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
)

// SQLiteRepositoryConfig holds configuration for the SQLite bidder repository.
type SQLiteRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/auctionsvc.db"`
}

// SQLiteRepository implements Repository using SQLite as the storage backend.
// Email uniqueness is enforced in depth by a UNIQUE COLLATE NOCASE constraint.
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
	log := logging.GetLogger("repo.bidder.sqlite_bidder_repository").With(
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
		CREATE TABLE IF NOT EXISTS bidders (
			id         TEXT    PRIMARY KEY,
			name       TEXT    NOT NULL,
			email      TEXT    NOT NULL UNIQUE COLLATE NOCASE,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Add implements Repository.Add using SQLite.
func (r *SQLiteRepository) Add(ctx context.Context, b *domain.Bidder) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO bidders (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		b.ID.String(),
		b.Name,
		b.Email,
		time.Now().Unix(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(fmt.Errorf("%w: %s", domain.ErrBidderAlreadyExists, b.Email), err)
			}
		}

		return fmt.Errorf("insert bidder: %w", err)
	}

	return nil
}

// GetByID implements Repository.GetByID using SQLite.
func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bidder, error) {
	var (
		b     domain.Bidder
		idStr string
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email FROM bidders WHERE id = ?",
		id.String(),
	).Scan(&idStr, &b.Name, &b.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(fmt.Errorf("%w: %s", domain.ErrBidderNotFound, id), err)
		}

		return nil, fmt.Errorf("query bidder: %w", err)
	}

	if b.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}

	return &b, nil
}

// Delete implements Repository.Delete using SQLite.
func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM bidders WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete bidder: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBidderNotFound, id)
	}

	return nil
}

// EmailExists implements Repository.EmailExists using SQLite.
func (r *SQLiteRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM bidders WHERE email = ? COLLATE NOCASE",
		email,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("count bidders: %w", err)
	}

	return count > 0, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
