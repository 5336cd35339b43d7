package normalize

import (
	"sort"
	"strings"

	"wikiseed/internal/domain"
)

// consumableStatKeys are the infobox fields that become item stats.
var consumableStatKeys = []string{
	"cost", "price", "duration", "effect", "effects",
	"weight", "stamina", "health", "value", "type",
}

// consumableSubcategories maps category-title fragments to item
// subcategories, checked in order so overlapping fragments resolve
// deterministically.
var consumableSubcategories = []struct {
	fragment string
	name     string
}{
	{"alcohol", "Alcohol"},
	{"drinks", "Drink"},
	{"food", "Food"},
	{"medical", "Medical"},
	{"drugs", "Drug"},
}

// ConsumableNormalizer extracts consumable item records.
type ConsumableNormalizer struct{}

// Category implements Normalizer.
func (n *ConsumableNormalizer) Category() domain.Category {
	return domain.CategoryConsumables
}

// Normalize extracts the item parent record plus one stat child per
// recognized infobox field. Stats keep their raw value split into value
// and unit; unrecognized fields are dropped rather than guessed at.
func (n *ConsumableNormalizer) Normalize(raw RawPage) (*domain.RecordSet, error) {
	page := pageFromRaw(raw)

	name := strings.TrimSpace(raw.Title)

	item := &domain.Item{
		Name:        name,
		Slug:        domain.Slugify(name),
		Category:    "Consumable",
		Subcategory: inferSubcategory(raw.Categories),
		Description: page.Summary,
	}

	fields := InfoboxFields(raw.Wikitext)
	for _, key := range consumableStatKeys {
		value, ok := fields[key]
		if !ok {
			continue
		}

		statValue, unit := splitStatValue(value)
		item.Stats = append(item.Stats, domain.ItemStat{
			Key:   key,
			Value: statValue,
			Unit:  unit,
		})
	}

	sort.Slice(item.Stats, func(i, j int) bool {
		return item.Stats[i].Key < item.Stats[j].Key
	})

	confidence := 0.5
	if len(item.Stats) > 0 {
		confidence = 1.0
	}

	return &domain.RecordSet{
		Category:   domain.CategoryConsumables,
		Page:       page,
		Confidence: confidence,
		Item:       item,
	}, nil
}

// inferSubcategory checks category titles for a known subcategory hint.
func inferSubcategory(categories []string) string {
	joined := strings.ToLower(strings.Join(categories, " | "))
	for _, sub := range consumableSubcategories {
		if strings.Contains(joined, sub.fragment) {
			return sub.name
		}
	}
	return ""
}
