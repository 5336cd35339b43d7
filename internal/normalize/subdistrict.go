package normalize

import (
	"strings"

	"wikiseed/internal/domain"
)

// SubdistrictNormalizer extracts sub-district records.
type SubdistrictNormalizer struct{}

// Category implements Normalizer.
func (n *SubdistrictNormalizer) Category() domain.Category {
	return domain.CategorySubdistricts
}

// Normalize derives the sub-district name from the title and infers the
// parent district from category titles. The parent is left absent when
// no known district matches; somebody backfills it later.
func (n *SubdistrictNormalizer) Normalize(raw RawPage) (*domain.RecordSet, error) {
	page := pageFromRaw(raw)

	name := strings.TrimSpace(strings.ReplaceAll(raw.Title, "(2077)", ""))
	parent := parentDistrict(raw.Categories)

	confidence := 0.5
	if parent != "" {
		confidence = 1.0
	}

	return &domain.RecordSet{
		Category:   domain.CategorySubdistricts,
		Page:       page,
		Confidence: confidence,
		Subdistrict: &domain.Subdistrict{
			Name:           name,
			Slug:           domain.Slugify(name),
			ParentDistrict: parent,
			Description:    page.Summary,
		},
	}, nil
}
