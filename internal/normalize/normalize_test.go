package normalize_test

import (
	"errors"
	"testing"
	"time"

	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
	"wikiseed/internal/normalize"
)

// failingNormalizer always errors so registry degradation can be tested.
type failingNormalizer struct {
	category domain.Category
}

func (f *failingNormalizer) Category() domain.Category { return f.category }

func (f *failingNormalizer) Normalize(normalize.RawPage) (*domain.RecordSet, error) {
	return nil, errors.New("extraction exploded")
}

func testRawPage(title, wikitext string, categories ...string) normalize.RawPage {
	return normalize.RawPage{
		PageID:     101,
		Title:      title,
		URL:        "https://wiki.test/" + title,
		RevisionID: 42,
		Wikitext:   wikitext,
		Categories: categories,
		FetchedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegistry_Normalize_UnknownCategory(t *testing.T) {
	t.Parallel()

	r := normalize.NewRegistry(logger.NewNoOp())

	_, err := r.Normalize(domain.CategorySubdistricts, testRawPage("Kabuki", "text"))
	if err == nil {
		t.Fatal("expected error for unregistered category")
	}
}

func TestRegistry_Normalize_DegradesToSummaryOnly(t *testing.T) {
	t.Parallel()

	r := normalize.NewRegistry(logger.NewNoOp())
	r.Register(&failingNormalizer{category: domain.CategorySubdistricts})

	set, err := r.Normalize(domain.CategorySubdistricts, testRawPage("Kabuki", "'''Kabuki''' text"))
	if err != nil {
		t.Fatalf("expected degraded set, got error %v", err)
	}

	if set.Confidence != 0 {
		t.Errorf("expected zero confidence for degraded set, got %v", set.Confidence)
	}
	if set.Subdistrict != nil || set.Cyberware != nil || set.Item != nil {
		t.Error("degraded set must carry no structured record")
	}
	if set.Page.Summary == "" {
		t.Error("degraded set must still carry the summary")
	}
	if set.Page.RevisionID != 42 {
		t.Errorf("expected revision 42 on page, got %d", set.Page.RevisionID)
	}
}

func TestSubdistrictNormalizer(t *testing.T) {
	t.Parallel()

	n := &normalize.SubdistrictNormalizer{}

	set, err := n.Normalize(testRawPage(
		"Kabuki (2077)",
		"'''Kabuki''' is a sub-district.",
		"Category:Cyberpunk_2077_Watson",
	))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	sd := set.Subdistrict
	if sd == nil {
		t.Fatal("expected subdistrict record")
	}
	if sd.Name != "Kabuki" {
		t.Errorf("expected name cleanup to strip (2077), got %q", sd.Name)
	}
	if sd.Slug != "kabuki" {
		t.Errorf("expected slug kabuki, got %q", sd.Slug)
	}
	if sd.ParentDistrict != "Watson" {
		t.Errorf("expected parent Watson, got %q", sd.ParentDistrict)
	}
	if set.Confidence != 1.0 {
		t.Errorf("expected full confidence with parent found, got %v", set.Confidence)
	}
}

func TestSubdistrictNormalizer_NoParent(t *testing.T) {
	t.Parallel()

	n := &normalize.SubdistrictNormalizer{}

	set, err := n.Normalize(testRawPage("Nowhere", "text", "Category:Unrelated"))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if set.Subdistrict.ParentDistrict != "" {
		t.Errorf("expected absent parent, got %q", set.Subdistrict.ParentDistrict)
	}
	if set.Confidence != 0.5 {
		t.Errorf("expected reduced confidence, got %v", set.Confidence)
	}
}

func TestCyberwareNormalizer_VariantsPerRarity(t *testing.T) {
	t.Parallel()

	n := normalize.NewCyberwareNormalizer(domain.CategoryCyberwareOS)

	wikitext := `{{Infobox cyberware
| manufacturer = [[Dynalar]]
| rarity = Rare, Epic, Legendary
| price = 28000
| effect = Slows time
}}
'''Sandevistan''' overclocks the nervous system.`

	set, err := n.Normalize(testRawPage(
		"Dynalar Sandevistan (Cyberware)",
		wikitext,
		"Category:Cyberpunk_2077_Cyberware_-_Sandevistan_Operating_system",
	))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	cw := set.Cyberware
	if cw == nil {
		t.Fatal("expected cyberware record")
	}
	if cw.Name != "Dynalar Sandevistan" {
		t.Errorf("expected name cleanup to strip (Cyberware), got %q", cw.Name)
	}
	if cw.Slot != "Operating System / Sandevistan" {
		t.Errorf("unexpected slot: %q", cw.Slot)
	}
	if cw.Manufacturer != "Dynalar" {
		t.Errorf("unexpected manufacturer: %q", cw.Manufacturer)
	}
	if cw.RarityMin != "Rare" || cw.RarityMax != "Legendary" {
		t.Errorf("unexpected rarity range: %q..%q", cw.RarityMin, cw.RarityMax)
	}

	if len(cw.Variants) != 3 {
		t.Fatalf("expected one variant per rarity tier, got %d", len(cw.Variants))
	}
	for i, rarity := range []string{"Rare", "Epic", "Legendary"} {
		v := cw.Variants[i]
		if v.Rarity != rarity {
			t.Errorf("variant %d: expected rarity %s, got %s", i, rarity, v.Rarity)
		}
		if v.Price != "28000" {
			t.Errorf("variant %d: expected price 28000, got %q", i, v.Price)
		}
		if v.Effects["effect"] != "Slows time" {
			t.Errorf("variant %d: unexpected effects %v", i, v.Effects)
		}
	}

	if set.Confidence != 1.0 {
		t.Errorf("expected full confidence with all fields found, got %v", set.Confidence)
	}
}

func TestCyberwareNormalizer_SparseMarkup(t *testing.T) {
	t.Parallel()

	n := normalize.NewCyberwareNormalizer(domain.CategoryCyberwareArms)

	set, err := n.Normalize(testRawPage(
		"Mantis Blades",
		"'''Mantis Blades''' are deadly.",
		"Category:Cyberpunk_2077_Cyberware_-_Arms",
	))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	cw := set.Cyberware
	if cw.Slot != "Arms" {
		t.Errorf("expected Arms slot, got %q", cw.Slot)
	}
	if len(cw.Variants) != 0 {
		t.Errorf("expected no variants without a rarity field, got %d", len(cw.Variants))
	}
	if set.Confidence != 0.5 {
		t.Errorf("expected confidence 0.5 (name + slot of 4), got %v", set.Confidence)
	}
}

func TestConsumableNormalizer(t *testing.T) {
	t.Parallel()

	n := &normalize.ConsumableNormalizer{}

	wikitext := `{{Infobox item
| cost = 10
| duration = 15 sec
| effect = Restores stamina
}}`

	set, err := n.Normalize(testRawPage(
		"NiCola",
		wikitext,
		"Category:Cyberpunk_2077_Drinks",
	))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	item := set.Item
	if item == nil {
		t.Fatal("expected item record")
	}
	if item.Category != "Consumable" {
		t.Errorf("unexpected category: %q", item.Category)
	}
	if item.Subcategory != "Drink" {
		t.Errorf("expected Drink subcategory, got %q", item.Subcategory)
	}

	if len(item.Stats) != 3 {
		t.Fatalf("expected 3 stats, got %d: %+v", len(item.Stats), item.Stats)
	}

	// Stats come back sorted by key.
	wantKeys := []string{"cost", "duration", "effect"}
	for i, key := range wantKeys {
		if item.Stats[i].Key != key {
			t.Errorf("stat %d: expected key %s, got %s", i, key, item.Stats[i].Key)
		}
	}

	var duration domain.ItemStat
	for _, s := range item.Stats {
		if s.Key == "duration" {
			duration = s
		}
	}
	if duration.Value != "15" || duration.Unit != "sec" {
		t.Errorf("expected duration split into value and unit, got %q %q", duration.Value, duration.Unit)
	}

	if set.Confidence != 1.0 {
		t.Errorf("expected full confidence with stats found, got %v", set.Confidence)
	}
}

func TestDefaultRegistry_CoversAllCategories(t *testing.T) {
	t.Parallel()

	r := normalize.NewDefaultRegistry(logger.NewNoOp())

	for _, category := range domain.AllCategories() {
		set, err := r.Normalize(category, testRawPage("Anything", "text"))
		if err != nil {
			t.Errorf("category %s: unexpected error %v", category, err)
			continue
		}
		if set.Category != category {
			t.Errorf("category %s: record set tagged %s", category, set.Category)
		}
	}
}
