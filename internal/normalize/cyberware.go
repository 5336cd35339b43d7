package normalize

import (
	"strings"

	"wikiseed/internal/domain"
)

// cyberwareExpectedFields is the denominator for extraction confidence.
const cyberwareExpectedFields = 4

// CyberwareNormalizer extracts cyberware records. One instance serves
// each cyberware sync group; the slot is inferred per page from its
// category titles, not from the group.
type CyberwareNormalizer struct {
	category domain.Category
}

// NewCyberwareNormalizer creates a normalizer bound to a sync group.
func NewCyberwareNormalizer(category domain.Category) *CyberwareNormalizer {
	return &CyberwareNormalizer{category: category}
}

// Category implements Normalizer.
func (n *CyberwareNormalizer) Category() domain.Category {
	return n.category
}

// Normalize extracts the cyberware parent record plus one variant child
// per recognized rarity tier. Fields the markup doesn't surface are
// simply absent.
func (n *CyberwareNormalizer) Normalize(raw RawPage) (*domain.RecordSet, error) {
	page := pageFromRaw(raw)

	name := strings.TrimSpace(strings.ReplaceAll(raw.Title, "(Cyberware)", ""))

	cw := &domain.Cyberware{
		Name:        name,
		Slug:        domain.Slugify(name),
		Slot:        inferSlot(raw.Categories),
		Description: page.Summary,
	}

	fields := InfoboxFields(raw.Wikitext)
	found := 1 // name always present

	if cw.Slot != "" {
		found++
	}

	if manufacturer, ok := fields["manufacturer"]; ok {
		cw.Manufacturer = manufacturer
		found++
	}

	if rarity, ok := fields["rarity"]; ok {
		tiers := splitRarities(rarity)
		if len(tiers) > 0 {
			cw.RarityMin = tiers[0]
			cw.RarityMax = tiers[len(tiers)-1]
			found++
		}

		price := fields["price"]
		for _, tier := range tiers {
			variant := domain.CyberwareVariant{Rarity: tier, Price: price}
			if effect, ok := fields["effect"]; ok {
				variant.Effects = domain.JSONBMap{"effect": effect}
			}
			cw.Variants = append(cw.Variants, variant)
		}
	}

	return &domain.RecordSet{
		Category:   n.category,
		Page:       page,
		Confidence: float64(found) / cyberwareExpectedFields,
		Cyberware:  cw,
	}, nil
}
