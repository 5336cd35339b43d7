package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
)

// Dialect selects placeholder rebinding and DDL form.
type Dialect int

const (
	// DialectSQLite targets the embedded fallback store.
	DialectSQLite Dialect = iota
	// DialectPostgres targets a PostgreSQL server.
	DialectPostgres
)

// SQLStore implements Store over sqlx for both dialects. Queries are
// written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	log     logger.Interface
	keys    *keyMutex
}

// NewSQLStore wraps an open connection. Exported so tests can inject a
// mocked database.
func NewSQLStore(db *sqlx.DB, dialect Dialect, log logger.Interface) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		log:     log,
		keys:    newKeyMutex(),
	}
}

// rebind converts ? placeholders to the dialect's form.
func (s *SQLStore) rebind(query string) string {
	if s.dialect == DialectPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// Close releases the underlying connections.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// pageRow is the pages table row. Timestamps are stored as RFC3339 TEXT
// so both backends scan identically.
type pageRow struct {
	ID          int64  `db:"id"`
	SourceID    int64  `db:"source_id"`
	PageID      int64  `db:"pageid"`
	Title       string `db:"title"`
	Slug        string `db:"slug"`
	URL         string `db:"url"`
	Lang        string `db:"lang"`
	RevisionID  int64  `db:"revid"`
	ContentHash string `db:"content_hash"`
	Wikitext    string `db:"wikitext"`
	Summary     string `db:"summary"`
	LastSeenAt  string `db:"last_seen_at"`
}

// pageSelectColumns lists columns for SELECT queries on pages.
const pageSelectColumns = `id, source_id, pageid, title, slug, url, lang,
	revid, content_hash, wikitext, summary, last_seen_at`

func (r *pageRow) toDomain() *domain.Page {
	page := &domain.Page{
		ID:          r.ID,
		SourceID:    r.SourceID,
		PageID:      r.PageID,
		Title:       r.Title,
		Slug:        r.Slug,
		URL:         r.URL,
		Lang:        r.Lang,
		RevisionID:  r.RevisionID,
		ContentHash: r.ContentHash,
		Wikitext:    r.Wikitext,
		Summary:     r.Summary,
	}

	if ts, err := time.Parse(time.RFC3339, r.LastSeenAt); err == nil {
		page.LastSeenAt = ts
	}

	return page
}

// EnsureSource returns the id of the source row, creating it on first
// use. Uses INSERT ... ON CONFLICT DO NOTHING then SELECT.
func (s *SQLStore) EnsureSource(ctx context.Context, src domain.Source) (int64, error) {
	insertQuery := s.rebind(`INSERT INTO sources (site, url, license, notes) VALUES (?, ?, ?, ?)
		ON CONFLICT (site, url) DO NOTHING`)

	if _, err := s.db.ExecContext(ctx, insertQuery, src.Site, src.URL, src.License, src.Notes); err != nil {
		return 0, fmt.Errorf("failed to insert source: %w", err)
	}

	selectQuery := s.rebind(`SELECT id FROM sources WHERE site = ? AND url = ?`)

	var id int64
	if err := s.db.GetContext(ctx, &id, selectQuery, src.Site, src.URL); err != nil {
		return 0, fmt.Errorf("failed to select source: %w", err)
	}

	return id, nil
}

// GetPage returns the stored page for (source, external page id).
func (s *SQLStore) GetPage(ctx context.Context, sourceID, pageID int64) (*domain.Page, error) {
	query := s.rebind(`SELECT ` + pageSelectColumns + ` FROM pages WHERE source_id = ? AND pageid = ?`)

	var row pageRow
	if err := s.db.GetContext(ctx, &row, query, sourceID, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to select page: %w", err)
	}

	return row.toDomain(), nil
}

// TouchPage bumps last_seen_at on an unchanged page.
func (s *SQLStore) TouchPage(ctx context.Context, sourceID, pageID int64, seenAt time.Time) error {
	query := s.rebind(`UPDATE pages SET last_seen_at = ? WHERE source_id = ? AND pageid = ?`)

	result, err := s.db.ExecContext(ctx, query, seenAt.UTC().Format(time.RFC3339), sourceID, pageID)
	return execRequireRows(result, err, fmt.Errorf("%w: pageid %d", ErrPageNotFound, pageID))
}

// ListRecords returns the reconciled snapshot records for a category by
// joining the category's parent table back to its pages.
func (s *SQLStore) ListRecords(ctx context.Context, category domain.Category) ([]domain.SnapshotRecord, error) {
	var query string

	switch category {
	case domain.CategorySubdistricts:
		query = `SELECT p.title, p.pageid, p.revid AS revision_id, p.url, r.slug, p.summary
			FROM subdistricts r JOIN pages p ON p.id = r.page_id ORDER BY r.slug`
	case domain.CategoryCyberwareOS:
		query = `SELECT p.title, p.pageid, p.revid AS revision_id, p.url, r.slug, p.summary
			FROM cyberware r JOIN pages p ON p.id = r.page_id
			WHERE r.slot LIKE 'Operating System%' ORDER BY r.slug`
	case domain.CategoryCyberwareArms:
		query = `SELECT p.title, p.pageid, p.revid AS revision_id, p.url, r.slug, p.summary
			FROM cyberware r JOIN pages p ON p.id = r.page_id
			WHERE r.slot = 'Arms' ORDER BY r.slug`
	case domain.CategoryConsumables:
		query = `SELECT p.title, p.pageid, p.revid AS revision_id, p.url, r.slug, p.summary
			FROM items r JOIN pages p ON p.id = r.page_id ORDER BY r.slug`
	default:
		return nil, fmt.Errorf("unknown category: %q", category)
	}

	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]domain.SnapshotRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.SnapshotRecord{
			Title:      r.Title,
			PageID:     r.PageID,
			RevisionID: r.RevisionID,
			URL:        r.URL,
			Slug:       r.Slug,
			Summary:    r.Summary,
		})
	}

	return records, nil
}

type snapshotRow struct {
	Title      string `db:"title"`
	PageID     int64  `db:"pageid"`
	RevisionID int64  `db:"revision_id"`
	URL        string `db:"url"`
	Slug       string `db:"slug"`
	Summary    string `db:"summary"`
}
