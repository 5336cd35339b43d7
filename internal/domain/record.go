package domain

// Subdistrict is the extracted record for a sub-district page.
type Subdistrict struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	ParentDistrict string `json:"parent_district,omitempty"`
	Description    string `json:"description,omitempty"`
	Aliases        string `json:"aliases,omitempty"`
}

// Cyberware is the extracted record for a cyberware page. Variants are
// owned children: replaced as a set whenever the parent is re-extracted.
type Cyberware struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	Slot         string             `json:"slot,omitempty"`
	Manufacturer string             `json:"manufacturer,omitempty"`
	RarityMin    string             `json:"rarity_min,omitempty"`
	RarityMax    string             `json:"rarity_max,omitempty"`
	Description  string             `json:"description,omitempty"`
	Variants     []CyberwareVariant `json:"variants,omitempty"`
}

// CyberwareVariant is one rarity tier of a cyberware item.
type CyberwareVariant struct {
	ID           int64    `json:"id"`
	CyberwareID  int64    `json:"cyberware_id"`
	Rarity       string   `json:"rarity"`
	Effects      JSONBMap `json:"effects,omitempty"`
	Requirements JSONBMap `json:"requirements,omitempty"`
	Price        string   `json:"price,omitempty"`
}

// Item is the extracted record for a consumable page. Stats are owned
// children, replaced together with the parent.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Description string     `json:"description,omitempty"`
	Stats       []ItemStat `json:"stats,omitempty"`
}

// ItemStat is one key/value stat extracted from an item page.
type ItemStat struct {
	ID         int64  `json:"id"`
	ItemID     int64  `json:"item_id"`
	Key        string `json:"stat_key"`
	Value      string `json:"stat_value"`
	Unit       string `json:"unit,omitempty"`
	SourceNote string `json:"source_note,omitempty"`
}

// RecordSet is the full extraction result for one page: updated page
// metadata plus at most one parent record for the page's category.
// Every record in the set traces back to the same page.
type RecordSet struct {
	Category   Category `json:"category"`
	Page       Page     `json:"page"`
	Confidence float64  `json:"confidence"`

	// Exactly one of the following is non-nil, matching Category.
	Subdistrict *Subdistrict `json:"subdistrict,omitempty"`
	Cyberware   *Cyberware   `json:"cyberware,omitempty"`
	Item        *Item        `json:"item,omitempty"`
}

// Slug returns the logical entity key component of the parent record,
// falling back to the page slug when no parent was extracted.
func (rs *RecordSet) Slug() string {
	switch {
	case rs.Subdistrict != nil:
		return rs.Subdistrict.Slug
	case rs.Cyberware != nil:
		return rs.Cyberware.Slug
	case rs.Item != nil:
		return rs.Item.Slug
	default:
		return rs.Page.Slug
	}
}

// SnapshotRecord is the per-page entry written to category snapshot
// files, mirroring what was reconciled this run.
type SnapshotRecord struct {
	Title      string `json:"title"`
	PageID     int64  `json:"pageid"`
	RevisionID int64  `json:"revid"`
	URL        string `json:"url,omitempty"`
	Slug       string `json:"slug"`
	Summary    string `json:"summary,omitempty"`
}
