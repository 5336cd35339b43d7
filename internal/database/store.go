// Package database provides database connectivity and the transactional
// upsert layer. One store implementation serves both PostgreSQL and the
// embedded SQLite fallback; the dialect is fixed once at startup.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
)

// ErrPageNotFound is returned when no page row exists for a lookup key.
var ErrPageNotFound = errors.New("page not found")

// Store is the transactional persistence contract the pipeline runs
// against. Both implementations (PostgreSQL server, embedded SQLite)
// honor the same upsert semantics.
type Store interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error
	// EnsureSource returns the id of the source row, creating it on
	// first use. Idempotent by (site, url).
	EnsureSource(ctx context.Context, src domain.Source) (int64, error)
	// GetPage returns the stored page for (source, external page id),
	// or ErrPageNotFound.
	GetPage(ctx context.Context, sourceID, pageID int64) (*domain.Page, error)
	// TouchPage bumps last_seen_at on an unchanged page.
	TouchPage(ctx context.Context, sourceID, pageID int64, seenAt time.Time) error
	// ReconcilePage persists a record set in a single transaction:
	// page metadata, parent record, and replaced children all commit
	// together or not at all.
	ReconcilePage(ctx context.Context, sourceID int64, set *domain.RecordSet) error
	// ListRecords returns the reconciled snapshot records for a category.
	ListRecords(ctx context.Context, category domain.Category) ([]domain.SnapshotRecord, error)
	// Close releases the underlying connections.
	Close() error
}

// Config holds store configuration.
type Config struct {
	// URL is the relational store connection string. A postgres:// URL
	// selects the PostgreSQL store; empty selects the SQLite fallback.
	URL string
	// SQLitePath is the fallback database file path.
	SQLitePath string
}

// Open selects and connects the store once at startup based on
// configuration, so the pipeline never branches on the backend.
func Open(cfg Config, log logger.Interface) (Store, error) {
	switch {
	case cfg.URL == "":
		log.Info("no database URL configured, using SQLite fallback", "path", cfg.SQLitePath)
		return OpenSQLite(cfg.SQLitePath, log)
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return OpenPostgres(cfg.URL, log)
	default:
		return nil, fmt.Errorf("unsupported database URL: %q", cfg.URL)
	}
}
