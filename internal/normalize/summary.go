package normalize

import (
	"regexp"
	"strings"
)

// summaryMaxLen caps the flattened summary length.
const summaryMaxLen = 500

var (
	templatePattern  = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	linkPattern      = regexp.MustCompile(`\[\[(?:[^\]|]+\|)?([^\]]+)\]\]`)
	refPattern       = regexp.MustCompile(`(?s)<ref[^>]*>.*?</ref>`)
	refSelfClosing   = regexp.MustCompile(`<ref[^>]*/>`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	headingPattern   = regexp.MustCompile(`(?m)^=+\s*([^=]+?)\s*=+\s*$`)
	blankRunPattern  = regexp.MustCompile(`\n{2,}`)
	quoteRunPattern  = regexp.MustCompile(`'{2,}`)
	fileLinkPattern  = regexp.MustCompile(`\[\[(?:File|Image):[^\]]*\]\]`)
	externalPattern  = regexp.MustCompile(`\[https?://\S+\s+([^\]]+)\]`)
	bareExternalLink = regexp.MustCompile(`\[https?://\S+\]`)
)

// Summary flattens wikitext into a short plain-text summary. It always
// succeeds: malformed markup degrades to truncated raw text rather than
// failing the page.
func Summary(wikitext string) string {
	if wikitext == "" {
		return ""
	}

	text := wikitext
	text = refPattern.ReplaceAllString(text, "")
	text = refSelfClosing.ReplaceAllString(text, "")
	text = templatePattern.ReplaceAllString(text, "")
	text = fileLinkPattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = externalPattern.ReplaceAllString(text, "$1")
	text = bareExternalLink.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "$1")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = quoteRunPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	return truncate(text, summaryMaxLen)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	// Back off to a valid rune boundary.
	cut := s[:n]
	for len(cut) > 0 && !validLeadingEdge(s, len(cut)) {
		cut = cut[:len(cut)-1]
	}

	return cut
}

// validLeadingEdge reports whether s[:i] ends on a rune boundary.
func validLeadingEdge(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	return (s[i] & 0xC0) != 0x80
}
