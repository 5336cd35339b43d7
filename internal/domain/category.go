// Package domain provides domain models used across the application.
package domain

import "fmt"

// Category identifies a sync group. Each category maps to one or more
// wiki categories upstream and one snapshot file downstream.
type Category string

const (
	// CategorySubdistricts covers Night City sub-district pages.
	CategorySubdistricts Category = "subdistricts"
	// CategoryCyberwareOS covers operating-system cyberware pages
	// (cyberdecks, Sandevistan, Berserk).
	CategoryCyberwareOS Category = "cyberware_os"
	// CategoryCyberwareArms covers arms cyberware pages.
	CategoryCyberwareArms Category = "cyberware_arms"
	// CategoryConsumables covers consumable item pages.
	CategoryConsumables Category = "consumables"
)

// AllCategories lists every syncable category in processing order.
func AllCategories() []Category {
	return []Category{
		CategorySubdistricts,
		CategoryCyberwareOS,
		CategoryCyberwareArms,
		CategoryConsumables,
	}
}

// Upstream wiki category titles.
const (
	wikiCatSubdistricts = "Category:Cyberpunk_2077_Sub-districts"
	wikiCatCyberdecks   = "Category:Cyberpunk_2077_Cyberware_-_Cyberdecks"
	wikiCatSandevistan  = "Category:Cyberpunk_2077_Cyberware_-_Sandevistan_Operating_system"
	wikiCatBerserk      = "Category:Cyberpunk_2077_Cyberware_-_Berserk_Operating_system"
	wikiCatArms         = "Category:Cyberpunk_2077_Cyberware_-_Arms"
	wikiCatConsumables  = "Category:Cyberpunk_2077_Consumables"
)

// WikiCategories returns the upstream category titles that feed this
// sync group. The OS group fans out to three upstream categories whose
// members are merged into one snapshot.
func (c Category) WikiCategories() []string {
	switch c {
	case CategorySubdistricts:
		return []string{wikiCatSubdistricts}
	case CategoryCyberwareOS:
		return []string{wikiCatCyberdecks, wikiCatSandevistan, wikiCatBerserk}
	case CategoryCyberwareArms:
		return []string{wikiCatArms}
	case CategoryConsumables:
		return []string{wikiCatConsumables}
	default:
		return nil
	}
}

// Valid reports whether the category is one of the known sync groups.
func (c Category) Valid() bool {
	switch c {
	case CategorySubdistricts, CategoryCyberwareOS, CategoryCyberwareArms, CategoryConsumables:
		return true
	default:
		return false
	}
}

// ParseCategory converts a string to a Category, validating it.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}
