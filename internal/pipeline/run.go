package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wikiseed/internal/database"
	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
	"wikiseed/internal/mediawiki"
	"wikiseed/internal/normalize"
)

// fetchChunkSize is how many changed pages one worker job fetches in a
// single detail call.
const fetchChunkSize = 40

// DefaultWorkers bounds the fetch+normalize+reconcile pool. The shared
// rate limiter is the real throughput cap; the pool just keeps
// normalization and reconciliation off a single goroutine.
const DefaultWorkers = 4

// Fetcher resolves category listings and page content.
type Fetcher interface {
	ListCategoryMembers(ctx context.Context, category string) ([]mediawiki.PageIdentity, error)
	FetchPages(ctx context.Context, pageIDs []int64) (map[int64]mediawiki.PageDetail, error)
}

// Normalizer dispatches raw pages to category extraction.
type Normalizer interface {
	Normalize(category domain.Category, raw normalize.RawPage) (*domain.RecordSet, error)
}

// Exporter externalizes the final record set per category plus a run
// manifest.
type Exporter interface {
	WriteCategory(category domain.Category, records []domain.SnapshotRecord) error
	WriteManifest(summary *Summary) error
}

// Runner executes sync runs.
type Runner struct {
	fetcher    Fetcher
	store      database.Store
	normalizer Normalizer
	exporter   Exporter
	log        logger.Interface
	workers    int
	now        func() time.Time
}

// NewRunner wires a runner from its collaborators.
func NewRunner(
	fetcher Fetcher,
	store database.Store,
	normalizer Normalizer,
	exporter Exporter,
	log logger.Interface,
	workers int,
) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Runner{
		fetcher:    fetcher,
		store:      store,
		normalizer: normalizer,
		exporter:   exporter,
		log:        log,
		workers:    workers,
		now:        time.Now,
	}
}

// Run processes the selected categories to completion. Page-level
// failures are recorded in the summary and never abort sibling pages or
// categories; only a store failure before any work starts is fatal.
func (r *Runner) Run(ctx context.Context, categories []domain.Category) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
	}

	sourceID, err := r.store.EnsureSource(ctx, domain.DefaultSource())
	if err != nil {
		return nil, fmt.Errorf("ensure source: %w", err)
	}

	r.log.Info("run started", "run_id", summary.RunID, "categories", len(categories))

	for _, category := range categories {
		cs := &CategorySummary{Category: category}
		summary.Categories = append(summary.Categories, cs)

		r.syncCategory(ctx, sourceID, category, cs)

		if exportErr := r.exportCategory(ctx, category, cs); exportErr != nil {
			r.log.Error("snapshot export failed",
				"category", string(category),
				"error", exportErr.Error(),
			)
		}
	}

	summary.FinishedAt = r.now().UTC()

	if manifestErr := r.exporter.WriteManifest(summary); manifestErr != nil {
		r.log.Error("manifest write failed", "error", manifestErr.Error())
	}

	r.log.Info("run finished",
		"run_id", summary.RunID,
		"failed_pages", summary.TotalFailed(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)

	return summary, nil
}

// syncCategory lists, partitions, and processes one category.
func (r *Runner) syncCategory(ctx context.Context, sourceID int64, category domain.Category, cs *CategorySummary) {
	pending := r.listAndPartition(ctx, sourceID, category, cs)
	if len(pending) == 0 {
		return
	}

	r.processPending(ctx, sourceID, category, pending, cs)
}

// listAndPartition walks the category's upstream listings sequentially
// (continuation tokens are dependent) and splits members into unchanged
// pages, which are only touched, and pending pages needing a content
// fetch. Members appearing in multiple upstream categories of the same
// group are deduplicated.
func (r *Runner) listAndPartition(
	ctx context.Context,
	sourceID int64,
	category domain.Category,
	cs *CategorySummary,
) []mediawiki.PageIdentity {
	seen := make(map[int64]bool)

	var pending []mediawiki.PageIdentity

	for _, wikiCat := range category.WikiCategories() {
		members, err := r.fetcher.ListCategoryMembers(ctx, wikiCat)
		if err != nil {
			r.log.Error("category listing failed",
				"category", string(category),
				"wiki_category", wikiCat,
				"error", err.Error(),
			)
			cs.AddFailure(0, wikiCat, fmt.Sprintf("listing failed: %v", err))
			continue
		}

		for _, member := range members {
			if seen[member.PageID] {
				continue
			}
			seen[member.PageID] = true
			cs.Listed++

			switch r.decide(ctx, sourceID, member) {
			case DecisionUnchanged:
				if touchErr := r.store.TouchPage(ctx, sourceID, member.PageID, r.now()); touchErr != nil {
					r.log.Warn("touch failed", "title", member.Title, "error", touchErr.Error())
				}
				cs.AddSkipped()
			default:
				pending = append(pending, member)
			}
		}
	}

	return pending
}

// decide looks up stored state for one listed identity.
func (r *Runner) decide(ctx context.Context, sourceID int64, member mediawiki.PageIdentity) Decision {
	stored, err := r.store.GetPage(ctx, sourceID, member.PageID)
	if err != nil && !errors.Is(err, database.ErrPageNotFound) {
		r.log.Warn("page lookup failed, treating as changed",
			"title", member.Title,
			"error", err.Error(),
		)
		return DecisionChanged
	}

	decision := Decide(stored, member)
	if decision != DecisionUnchanged {
		r.log.Debug("page needs processing", "title", member.Title, "decision", decision.String())
	}

	return decision
}

// processPending fans pending pages across the worker pool in detail
// chunks. Workers share the rate limiter through the fetcher, so the
// pool size only bounds in-flight normalization and reconciliation.
func (r *Runner) processPending(
	ctx context.Context,
	sourceID int64,
	category domain.Category,
	pending []mediawiki.PageIdentity,
	cs *CategorySummary,
) {
	jobs := make(chan []mediawiki.PageIdentity)

	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for chunk := range jobs {
				r.processChunk(ctx, sourceID, category, chunk, cs)
			}
		}()
	}

	for start := 0; start < len(pending); start += fetchChunkSize {
		end := start + fetchChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		jobs <- pending[start:end]
	}
	close(jobs)

	wg.Wait()
}

// processChunk fetches one chunk of pages and runs each through
// normalize + reconcile. A chunk-level fetch failure fails only the
// pages whose detail is missing.
func (r *Runner) processChunk(
	ctx context.Context,
	sourceID int64,
	category domain.Category,
	chunk []mediawiki.PageIdentity,
	cs *CategorySummary,
) {
	ids := make([]int64, len(chunk))
	for i, member := range chunk {
		ids[i] = member.PageID
	}

	details, fetchErr := r.fetcher.FetchPages(ctx, ids)

	for _, member := range chunk {
		detail, ok := details[member.PageID]
		if !ok {
			reason := "page detail missing from response"
			if fetchErr != nil {
				reason = fetchErr.Error()
			}
			cs.AddFailure(member.PageID, member.Title, reason)
			continue
		}

		if processErr := r.processPage(ctx, sourceID, category, detail); processErr != nil {
			r.log.Error("page processing failed",
				"title", detail.Title,
				"error", processErr.Error(),
			)
			cs.AddFailure(member.PageID, member.Title, processErr.Error())
			continue
		}

		cs.AddProcessed()
	}
}

// processPage normalizes one fetched page and reconciles its records.
func (r *Runner) processPage(
	ctx context.Context,
	sourceID int64,
	category domain.Category,
	detail mediawiki.PageDetail,
) error {
	raw := normalize.RawPage{
		PageID:     detail.PageID,
		Title:      detail.Title,
		URL:        detail.URL,
		RevisionID: detail.RevisionID,
		Wikitext:   detail.Wikitext,
		Categories: detail.Categories,
		FetchedAt:  detail.FetchedAt,
	}

	set, err := r.normalizer.Normalize(category, raw)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	if reconcileErr := r.store.ReconcilePage(ctx, sourceID, set); reconcileErr != nil {
		return fmt.Errorf("reconcile: %w", reconcileErr)
	}

	return nil
}

// exportCategory re-reads the reconciled record set and writes the
// category snapshot.
func (r *Runner) exportCategory(ctx context.Context, category domain.Category, cs *CategorySummary) error {
	records, err := r.store.ListRecords(ctx, category)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	cs.RecordCount = len(records)

	return r.exporter.WriteCategory(category, records)
}
