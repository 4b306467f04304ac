package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string
	DialTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS referrals (
	id            TEXT PRIMARY KEY,
	patient_name  TEXT NOT NULL,
	referred_by   TEXT NOT NULL,
	referred_to   TEXT NOT NULL,
	diagnosis     TEXT NOT NULL,
	dob           TEXT NOT NULL DEFAULT '',
	referral_date TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	file_path     TEXT NOT NULL,
	mime_type     TEXT NOT NULL,
	status        TEXT NOT NULL,
	storage_kind  TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_referrals_created_at ON referrals (created_at DESC);
`

// Open opens the embedded record store and applies the schema. The store
// is initialized here, at process start, never lazily on first access.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("opening record store", "path", cfg.Path)
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("record store ping failed", "error", err)
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("failed to apply record store schema", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("record store ready")
	return db, nil
}

// Close closes the record store gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	logger.Info("closing record store")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close record store", "error", err)
		}
	}
	logger.Info("record store closed")
}

// HealthCheck pings the store to catch path/permission issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging record store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
