package database

import (
	"context"
	"fmt"
	"strings"
)

// schemaDDL is written in SQLite form; postgres rewrites the primary
// key declaration. Timestamps are stored as RFC3339 TEXT so both
// backends scan identically.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS sources(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  site TEXT NOT NULL,
  url TEXT NOT NULL,
  license TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  UNIQUE(site, url)
);

CREATE TABLE IF NOT EXISTS pages(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source_id BIGINT NOT NULL REFERENCES sources(id),
  pageid BIGINT NOT NULL,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  lang TEXT NOT NULL DEFAULT 'en',
  revid BIGINT NOT NULL,
  content_hash TEXT NOT NULL DEFAULT '',
  wikitext TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  last_seen_at TEXT NOT NULL,
  UNIQUE(source_id, pageid)
);

CREATE TABLE IF NOT EXISTS subdistricts(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  page_id BIGINT NOT NULL REFERENCES pages(id),
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  parent_district TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  aliases TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cyberware(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  page_id BIGINT NOT NULL REFERENCES pages(id),
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  slot TEXT NOT NULL DEFAULT '',
  manufacturer TEXT NOT NULL DEFAULT '',
  rarity_min TEXT NOT NULL DEFAULT '',
  rarity_max TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cyberware_variants(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cyberware_id BIGINT NOT NULL REFERENCES cyberware(id),
  rarity TEXT NOT NULL,
  effects_json TEXT NOT NULL DEFAULT '{}',
  requirements_json TEXT NOT NULL DEFAULT '{}',
  price TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  page_id BIGINT NOT NULL REFERENCES pages(id),
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  subcategory TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS item_stats(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  item_id BIGINT NOT NULL REFERENCES items(id),
  stat_key TEXT NOT NULL,
  stat_value TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT '',
  source_note TEXT NOT NULL DEFAULT ''
);
`

// schemaFor returns the DDL adjusted for the store's dialect.
func schemaFor(dialect Dialect) string {
	if dialect == DialectPostgres {
		return strings.ReplaceAll(schemaDDL, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
	}
	return schemaDDL
}

// Migrate creates the schema if it does not exist. Statements are
// executed one at a time because the SQLite driver rejects multi-statement
// Exec calls.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaFor(s.dialect), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
