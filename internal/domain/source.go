package domain

// Source represents a named upstream origin. Immutable once created;
// looked up by (site, url) and created on first use.
type Source struct {
	ID      int64  `json:"id"`
	Site    string `json:"site"`
	URL     string `json:"url"`
	License string `json:"license"`
	Notes   string `json:"notes,omitempty"`
}

// DefaultSource is the origin all syncs attribute their pages to.
func DefaultSource() Source {
	return Source{
		Site:    "Fandom",
		URL:     "https://cyberpunk.fandom.com",
		License: "CC BY-SA 3.0",
		Notes:   "Data via MediaWiki API",
	}
}
