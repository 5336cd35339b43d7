package mediawiki

import "time"

// PageIdentity is the lightweight identity a category listing yields:
// enough to decide whether the expensive content fetch is needed.
type PageIdentity struct {
	PageID     int64
	Title      string
	RevisionID int64
}

// PageDetail is the full detail fetch result for one page.
type PageDetail struct {
	PageID     int64
	Title      string
	URL        string
	RevisionID int64
	Timestamp  time.Time
	Wikitext   string
	Categories []string
	FetchedAt  time.Time
}

// queryResponse mirrors the MediaWiki action=query JSON envelope.
// The default format keys pages by stringified page ID and puts
// revision content under "*".
type queryResponse struct {
	Continue map[string]string `json:"continue,omitempty"`
	Query    struct {
		CategoryMembers []categoryMemberJSON    `json:"categorymembers,omitempty"`
		Pages           map[string]pageDataJSON `json:"pages,omitempty"`
	} `json:"query"`
	Error *apiErrorJSON `json:"error,omitempty"`
}

type categoryMemberJSON struct {
	PageID int64  `json:"pageid"`
	Title  string `json:"title"`
	NS     int    `json:"ns"`
}

type pageDataJSON struct {
	PageID    int64          `json:"pageid"`
	Title     string         `json:"title"`
	FullURL   string         `json:"fullurl,omitempty"`
	Missing   *string        `json:"missing,omitempty"`
	Revisions []revisionJSON `json:"revisions,omitempty"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories,omitempty"`
}

type revisionJSON struct {
	RevID     int64  `json:"revid"`
	Timestamp string `json:"timestamp,omitempty"`
	Content   string `json:"*,omitempty"`
}

type apiErrorJSON struct {
	Code string `json:"code"`
	Info string `json:"info"`
}
