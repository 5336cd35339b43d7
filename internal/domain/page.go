package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Page represents one wiki page as persisted. (source_id, pageid) is
// unique; RevisionID only ever advances for a given page.
type Page struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	PageID      int64     `json:"pageid"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	URL         string    `json:"url,omitempty"`
	Lang        string    `json:"lang"`
	RevisionID  int64     `json:"revid"`
	ContentHash string    `json:"content_hash,omitempty"`
	Wikitext    string    `json:"-"`
	Summary     string    `json:"summary,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the stable logical key component from a title:
// lowercase, non-alphanumeric runs collapsed to "-", trimmed.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ComputeContentHash returns the hex-encoded SHA-256 of raw page content.
func ComputeContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
