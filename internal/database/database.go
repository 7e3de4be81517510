package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrHoldConflict means another attempt already holds the room for that range.
	ErrHoldConflict    = errors.New("room is already held for this range")
	ErrBookingNotFound = errors.New("booking not found")
	ErrGuestNotFound   = errors.New("guest not found")
	ErrTenantNotFound  = errors.New("tenant not found")
)

// DB is the local relational store. It is authoritative only for holds,
// booking mirrors, guests, tenants, promotions and the notification outbox.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer connection; every hold insert races through the same PK check.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Info().Str("path", path).Msg("database initialized")

	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS room_holds (
            tenant_id INTEGER NOT NULL,
            property_id INTEGER NOT NULL,
            room_type_id INTEGER NOT NULL,
            room_id INTEGER NOT NULL,
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL,
            expires_at INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            PRIMARY KEY (tenant_id, property_id, room_type_id, room_id, start_date, end_date)
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            booking_id INTEGER PRIMARY KEY,
            active BOOLEAN NOT NULL DEFAULT 1,
            otp TEXT NOT NULL DEFAULT '',
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL,
            room_count INTEGER NOT NULL,
            adult_count INTEGER NOT NULL,
            teen_count INTEGER NOT NULL DEFAULT 0,
            kid_count INTEGER NOT NULL DEFAULT 0,
            senior_count INTEGER NOT NULL DEFAULT 0,
            tenant_id INTEGER NOT NULL,
            property_id INTEGER NOT NULL,
            room_type_id INTEGER NOT NULL,
            room_name TEXT NOT NULL,
            room_image_url TEXT,
            guest_id INTEGER NOT NULL,
            guest_email TEXT NOT NULL,
            cost_info TEXT NOT NULL,
            promotion_info TEXT NOT NULL,
            guest_info TEXT NOT NULL,
            billing_info TEXT NOT NULL,
            payment_info TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS guests (
            guest_id INTEGER PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            token TEXT NOT NULL DEFAULT '',
            has_subscribed BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS tenants (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            secret_hash TEXT NOT NULL,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS promotions (
            title TEXT PRIMARY KEY,
            description TEXT NOT NULL DEFAULT '',
            price_factor REAL NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notification_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            booking_id INTEGER NOT NULL DEFAULT 0,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_room_holds_expires_at ON room_holds(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest_email ON bookings(guest_email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tenant_id ON bookings(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_status ON notification_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", firstLine(query), err)
		}
	}
	return nil
}

func firstLine(q string) string {
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return q[:i]
	}
	return q
}

// Path returns the file path the store was opened with.
func (db *DB) Path() string {
	return db.path
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
