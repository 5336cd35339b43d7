package normalize

import (
	"regexp"
	"strings"
)

// knownDistricts are the Night City districts a sub-district can belong
// to. Parent inference checks category titles against this list.
var knownDistricts = []string{
	"Watson", "Westbrook", "City Center", "Santo Domingo",
	"Heywood", "Pacifica", "Dogtown", "Badlands",
}

var infoboxFieldPattern = regexp.MustCompile(`(?m)^\s*\|\s*([A-Za-z][A-Za-z0-9 _-]*?)\s*=\s*(.+?)\s*$`)

// InfoboxFields extracts |key = value pairs from the page's template
// markup. Keys are lowercased with spaces collapsed to underscores.
// Values keep their raw wikitext except for link markup, which is
// flattened. Fields without a value are omitted, never defaulted.
func InfoboxFields(wikitext string) map[string]string {
	matches := infoboxFieldPattern.FindAllStringSubmatch(wikitext, -1)
	if len(matches) == 0 {
		return nil
	}

	fields := make(map[string]string, len(matches))
	for _, m := range matches {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		key = strings.ReplaceAll(key, " ", "_")

		value := strings.TrimSpace(linkPattern.ReplaceAllString(m[2], "$1"))
		value = strings.TrimSpace(quoteRunPattern.ReplaceAllString(value, ""))
		if key == "" || value == "" {
			continue
		}
		fields[key] = value
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// parentDistrict infers the parent district from category titles.
// Returns "" when no known district is mentioned; callers leave the
// field absent rather than guessing.
func parentDistrict(categories []string) string {
	for _, district := range knownDistricts {
		needle := strings.ToLower(district)
		for _, cat := range categories {
			if strings.Contains(strings.ToLower(cat), needle) {
				return district
			}
		}
	}
	return ""
}

// inferSlot derives the cyberware slot from category titles.
func inferSlot(categories []string) string {
	joined := strings.ToLower(strings.Join(categories, " | "))
	switch {
	case strings.Contains(joined, "arms"):
		return "Arms"
	case strings.Contains(joined, "cyberdecks"):
		return "Operating System / Cyberdeck"
	case strings.Contains(joined, "sandevistan"):
		return "Operating System / Sandevistan"
	case strings.Contains(joined, "berserk"):
		return "Operating System / Berserk"
	case strings.Contains(joined, "operating system"),
		strings.Contains(joined, "operating_system"):
		return "Operating System"
	default:
		return ""
	}
}

// rarityOrder ranks rarities lowest to highest for min/max derivation.
var rarityOrder = []string{"Common", "Uncommon", "Rare", "Epic", "Legendary", "Iconic"}

// splitRarities parses a rarity field like "Rare, Epic, Legendary" into
// known tiers, in canonical order.
func splitRarities(value string) []string {
	lowered := strings.ToLower(value)

	var tiers []string
	for _, r := range rarityOrder {
		if strings.Contains(lowered, strings.ToLower(r)) {
			tiers = append(tiers, r)
		}
	}
	return tiers
}

var statValuePattern = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?%?)\s*([A-Za-z/]{0,12})$`)

// splitStatValue separates a numeric stat value from its trailing unit,
// e.g. "15 sec" -> ("15", "sec"). Non-matching values are returned
// whole with no unit.
func splitStatValue(value string) (string, string) {
	m := statValuePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return strings.TrimSpace(value), ""
	}
	return m[1], m[2]
}
