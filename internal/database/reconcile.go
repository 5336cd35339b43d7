package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"wikiseed/internal/domain"
)

// ReconcilePage persists a record set in a single transaction: the page
// row is upserted by (source_id, pageid), the parent record by its
// logical key (category table + slug), and owned children are replaced
// as a set. Any failure rolls the whole page back, so readers never see
// a parent without its children. A per-entity-key lock serializes
// concurrent reconciles that collide on the same slug; within a run the
// last writer wins and the collision is logged.
func (s *SQLStore) ReconcilePage(ctx context.Context, sourceID int64, set *domain.RecordSet) error {
	key := string(set.Category) + "/" + set.Slug()
	unlock := s.keys.Lock(key)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if reconcileErr := s.reconcileInTx(ctx, tx, sourceID, set); reconcileErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", "key", key, "error", rbErr.Error())
		}
		return reconcileErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return nil
}

func (s *SQLStore) reconcileInTx(ctx context.Context, tx *sqlx.Tx, sourceID int64, set *domain.RecordSet) error {
	pageRowID, err := s.upsertPage(ctx, tx, sourceID, &set.Page)
	if err != nil {
		return err
	}

	s.logSlugCollision(ctx, tx, set, pageRowID)

	switch {
	case set.Subdistrict != nil:
		return s.upsertSubdistrict(ctx, tx, pageRowID, set.Subdistrict)
	case set.Cyberware != nil:
		return s.upsertCyberware(ctx, tx, pageRowID, set.Cyberware)
	case set.Item != nil:
		return s.upsertItem(ctx, tx, pageRowID, set.Item)
	default:
		// Degraded extraction: page metadata only.
		return nil
	}
}

// logSlugCollision warns when the parent record about to be upserted is
// already owned by a different page. The upsert still proceeds, so the
// newer extraction wins, but the overwrite is visible in the logs.
func (s *SQLStore) logSlugCollision(ctx context.Context, tx *sqlx.Tx, set *domain.RecordSet, pageRowID int64) {
	var table string

	switch {
	case set.Subdistrict != nil:
		table = "subdistricts"
	case set.Cyberware != nil:
		table = "cyberware"
	case set.Item != nil:
		table = "items"
	default:
		return
	}

	query := s.rebind(`SELECT page_id FROM ` + table + ` WHERE slug = ?`)

	var ownerPageID int64
	if err := tx.GetContext(ctx, &ownerPageID, query, set.Slug()); err != nil {
		// No existing row (or a read hiccup): nothing to report.
		return
	}

	if ownerPageID != pageRowID {
		s.log.Warn("logical key collision, last writer wins",
			"table", table,
			"slug", set.Slug(),
			"previous_page_id", ownerPageID,
			"page_id", pageRowID,
		)
	}
}

// upsertPage writes the page row and returns its internal id.
func (s *SQLStore) upsertPage(ctx context.Context, tx *sqlx.Tx, sourceID int64, page *domain.Page) (int64, error) {
	query := s.rebind(`INSERT INTO pages
		(source_id, pageid, title, slug, url, lang, revid, content_hash, wikitext, summary, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, pageid) DO UPDATE SET
			title = excluded.title, slug = excluded.slug, url = excluded.url,
			lang = excluded.lang, revid = excluded.revid, content_hash = excluded.content_hash,
			wikitext = excluded.wikitext, summary = excluded.summary, last_seen_at = excluded.last_seen_at
		RETURNING id`)

	seenAt := page.LastSeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}

	var id int64
	err := tx.GetContext(ctx, &id, query,
		sourceID, page.PageID, page.Title, page.Slug, page.URL, page.Lang,
		page.RevisionID, page.ContentHash, page.Wikitext, page.Summary,
		seenAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert page: %w", err)
	}

	return id, nil
}

// upsertSubdistrict writes the sub-district record keyed by slug. A
// conflicting slug means the same logical entity reached us through a
// renamed or duplicate page; the newer extraction wins.
func (s *SQLStore) upsertSubdistrict(ctx context.Context, tx *sqlx.Tx, pageRowID int64, sub *domain.Subdistrict) error {
	query := s.rebind(`INSERT INTO subdistricts (page_id, slug, name, parent_district, description, aliases)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			page_id = excluded.page_id, name = excluded.name,
			parent_district = excluded.parent_district, description = excluded.description`)

	if _, err := tx.ExecContext(ctx, query,
		pageRowID, sub.Slug, sub.Name, sub.ParentDistrict, sub.Description, sub.Aliases,
	); err != nil {
		return fmt.Errorf("failed to upsert subdistrict: %w", err)
	}

	return nil
}

// upsertCyberware writes the cyberware record keyed by slug and
// replaces its variant children as a set.
func (s *SQLStore) upsertCyberware(ctx context.Context, tx *sqlx.Tx, pageRowID int64, cw *domain.Cyberware) error {
	query := s.rebind(`INSERT INTO cyberware
		(page_id, slug, name, slot, manufacturer, rarity_min, rarity_max, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			page_id = excluded.page_id, name = excluded.name, slot = excluded.slot,
			manufacturer = excluded.manufacturer, rarity_min = excluded.rarity_min,
			rarity_max = excluded.rarity_max, description = excluded.description
		RETURNING id`)

	var cyberwareID int64
	if err := tx.GetContext(ctx, &cyberwareID, query,
		pageRowID, cw.Slug, cw.Name, cw.Slot, cw.Manufacturer,
		cw.RarityMin, cw.RarityMax, cw.Description,
	); err != nil {
		return fmt.Errorf("failed to upsert cyberware: %w", err)
	}

	deleteQuery := s.rebind(`DELETE FROM cyberware_variants WHERE cyberware_id = ?`)
	if _, err := tx.ExecContext(ctx, deleteQuery, cyberwareID); err != nil {
		return fmt.Errorf("failed to delete stale variants: %w", err)
	}

	insertQuery := s.rebind(`INSERT INTO cyberware_variants
		(cyberware_id, rarity, effects_json, requirements_json, price)
		VALUES (?, ?, ?, ?, ?)`)

	for i := range cw.Variants {
		v := &cw.Variants[i]
		if _, err := tx.ExecContext(ctx, insertQuery,
			cyberwareID, v.Rarity, &v.Effects, &v.Requirements, v.Price,
		); err != nil {
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	return nil
}

// upsertItem writes the item record keyed by slug and replaces its stat
// children as a set.
func (s *SQLStore) upsertItem(ctx context.Context, tx *sqlx.Tx, pageRowID int64, item *domain.Item) error {
	query := s.rebind(`INSERT INTO items (page_id, slug, name, category, subcategory, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			page_id = excluded.page_id, name = excluded.name, category = excluded.category,
			subcategory = excluded.subcategory, description = excluded.description
		RETURNING id`)

	var itemID int64
	if err := tx.GetContext(ctx, &itemID, query,
		pageRowID, item.Slug, item.Name, item.Category, item.Subcategory, item.Description,
	); err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	deleteQuery := s.rebind(`DELETE FROM item_stats WHERE item_id = ?`)
	if _, err := tx.ExecContext(ctx, deleteQuery, itemID); err != nil {
		return fmt.Errorf("failed to delete stale stats: %w", err)
	}

	insertQuery := s.rebind(`INSERT INTO item_stats (item_id, stat_key, stat_value, unit, source_note)
		VALUES (?, ?, ?, ?, ?)`)

	for _, stat := range item.Stats {
		if _, err := tx.ExecContext(ctx, insertQuery,
			itemID, stat.Key, stat.Value, stat.Unit, stat.SourceNote,
		); err != nil {
			return fmt.Errorf("failed to insert item stat: %w", err)
		}
	}

	return nil
}
