package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// listBatchSize is the cmlimit for category member listings.
	listBatchSize = "200"
	// detailChunkSize bounds pageids per detail call to keep URLs short.
	detailChunkSize = 40
	// categoryLimit is the cllimit for category props on detail calls.
	categoryLimit = "500"
)

// Fetcher resolves category listings into page identities and fetches
// full page content with revision metadata.
type Fetcher struct {
	client *Client
}

// NewFetcher creates a fetcher on top of the rate-limited client.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// ListCategoryMembers follows continuation tokens until the listing is
// exhausted. It uses generator=categorymembers with prop=revisions so
// each identity carries the latest revision ID without fetching content;
// unchanged pages never need a second call.
func (f *Fetcher) ListCategoryMembers(ctx context.Context, category string) ([]PageIdentity, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "categorymembers")
	params.Set("gcmtitle", category)
	params.Set("gcmlimit", listBatchSize)
	params.Set("prop", "revisions")
	params.Set("rvprop", "ids")

	var members []PageIdentity

	for {
		resp, err := f.client.Get(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list category %s: %w", category, err)
		}

		for _, page := range resp.Query.Pages {
			if page.Missing != nil {
				continue
			}

			identity := PageIdentity{PageID: page.PageID, Title: page.Title}
			if len(page.Revisions) > 0 {
				identity.RevisionID = page.Revisions[0].RevID
			}
			members = append(members, identity)
		}

		if len(resp.Continue) == 0 {
			break
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}

	return members, nil
}

// FetchPages fetches full content and revision metadata for the given
// page IDs, chunked to keep request URLs bounded. A failed chunk is
// returned alongside the pages that did succeed so callers can record
// partial failures without abandoning the rest.
func (f *Fetcher) FetchPages(ctx context.Context, pageIDs []int64) (map[int64]PageDetail, error) {
	details := make(map[int64]PageDetail, len(pageIDs))

	var firstErr error

	for start := 0; start < len(pageIDs); start += detailChunkSize {
		end := start + detailChunkSize
		if end > len(pageIDs) {
			end = len(pageIDs)
		}

		chunk, err := f.fetchChunk(ctx, pageIDs[start:end])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for id, d := range chunk {
			details[id] = d
		}
	}

	return details, firstErr
}

// fetchChunk performs one detail call for up to detailChunkSize pages.
func (f *Fetcher) fetchChunk(ctx context.Context, pageIDs []int64) (map[int64]PageDetail, error) {
	ids := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions|categories|info")
	params.Set("rvprop", "ids|timestamp|content")
	params.Set("cllimit", categoryLimit)
	params.Set("inprop", "url")
	params.Set("pageids", strings.Join(ids, "|"))

	resp, err := f.client.Get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch pages: %w", err)
	}

	fetchedAt := time.Now().UTC()
	details := make(map[int64]PageDetail, len(resp.Query.Pages))

	for _, page := range resp.Query.Pages {
		if page.Missing != nil || len(page.Revisions) == 0 {
			continue
		}

		rev := page.Revisions[0]

		detail := PageDetail{
			PageID:     page.PageID,
			Title:      page.Title,
			URL:        page.FullURL,
			RevisionID: rev.RevID,
			Wikitext:   rev.Content,
			FetchedAt:  fetchedAt,
		}

		if ts, parseErr := time.Parse(time.RFC3339, rev.Timestamp); parseErr == nil {
			detail.Timestamp = ts
		}

		for _, cat := range page.Categories {
			detail.Categories = append(detail.Categories, cat.Title)
		}

		details[page.PageID] = detail
	}

	return details, nil
}
