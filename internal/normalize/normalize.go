// Package normalize converts raw wikitext into plain-text summaries and
// best-effort structured records. Extraction is category-specific and
// registered per category, so adding a category never touches fetch or
// persistence code.
package normalize

import (
	"fmt"
	"time"

	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
)

// RawPage is the normalizer input: one fetched page plus its metadata.
type RawPage struct {
	PageID     int64
	Title      string
	URL        string
	RevisionID int64
	Wikitext   string
	Categories []string
	FetchedAt  time.Time
}

// Normalizer extracts a structured record set from one raw page.
// Implementations must always return a usable record set: when field
// extraction fails they degrade to a summary-only result rather than
// erroring the page out of the run.
type Normalizer interface {
	Category() domain.Category
	Normalize(raw RawPage) (*domain.RecordSet, error)
}

// Registry dispatches pages to the normalizer registered for their
// category.
type Registry struct {
	normalizers map[domain.Category]Normalizer
	log         logger.Interface
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Interface) *Registry {
	return &Registry{
		normalizers: make(map[domain.Category]Normalizer),
		log:         log,
	}
}

// NewDefaultRegistry creates a registry with all built-in normalizers.
func NewDefaultRegistry(log logger.Interface) *Registry {
	r := NewRegistry(log)
	r.Register(&SubdistrictNormalizer{})
	r.Register(NewCyberwareNormalizer(domain.CategoryCyberwareOS))
	r.Register(NewCyberwareNormalizer(domain.CategoryCyberwareArms))
	r.Register(&ConsumableNormalizer{})
	return r
}

// Register adds a normalizer, replacing any previous registration for
// its category.
func (r *Registry) Register(n Normalizer) {
	r.normalizers[n.Category()] = n
}

// Normalize runs the registered normalizer for the category. A missing
// registration is a programming error; extraction errors degrade to a
// summary-only record set so the page still reconciles.
func (r *Registry) Normalize(category domain.Category, raw RawPage) (*domain.RecordSet, error) {
	n, ok := r.normalizers[category]
	if !ok {
		return nil, fmt.Errorf("no normalizer registered for category %q", category)
	}

	set, err := n.Normalize(raw)
	if err != nil || set == nil {
		if err != nil {
			r.log.Warn("extraction degraded to summary only",
				"category", string(category),
				"title", raw.Title,
				"error", err.Error(),
			)
		}
		return summaryOnlySet(category, raw), nil
	}

	return set, nil
}

// summaryOnlySet is the degraded extraction result: page metadata and a
// flattened summary, no structured fields.
func summaryOnlySet(category domain.Category, raw RawPage) *domain.RecordSet {
	return &domain.RecordSet{
		Category:   category,
		Page:       pageFromRaw(raw),
		Confidence: 0,
	}
}

// pageFromRaw builds the page row update shared by every normalizer.
func pageFromRaw(raw RawPage) domain.Page {
	return domain.Page{
		PageID:      raw.PageID,
		Title:       raw.Title,
		Slug:        domain.Slugify(raw.Title),
		URL:         raw.URL,
		Lang:        "en",
		RevisionID:  raw.RevisionID,
		ContentHash: domain.ComputeContentHash([]byte(raw.Wikitext)),
		Wikitext:    raw.Wikitext,
		Summary:     Summary(raw.Wikitext),
		LastSeenAt:  raw.FetchedAt,
	}
}
