package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wikiseed/internal/database"
	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
	"wikiseed/internal/mediawiki"
	"wikiseed/internal/normalize"
	"wikiseed/internal/pipeline"
	"wikiseed/internal/snapshot"
)

// fakeFetcher serves canned listings and details, counting detail calls
// so tests can prove unchanged pages skip the content fetch.
type fakeFetcher struct {
	members     map[string][]mediawiki.PageIdentity
	details     map[int64]mediawiki.PageDetail
	listErr     map[string]error
	detailCalls atomic.Int64
}

func (f *fakeFetcher) ListCategoryMembers(_ context.Context, category string) ([]mediawiki.PageIdentity, error) {
	if err := f.listErr[category]; err != nil {
		return nil, err
	}
	return f.members[category], nil
}

func (f *fakeFetcher) FetchPages(_ context.Context, pageIDs []int64) (map[int64]mediawiki.PageDetail, error) {
	f.detailCalls.Add(1)

	out := make(map[int64]mediawiki.PageDetail, len(pageIDs))
	for _, id := range pageIDs {
		if d, ok := f.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

// fakeStore is an in-memory Store good enough for runner semantics:
// revision state, touch counting, and injectable reconcile failures.
type fakeStore struct {
	mu           sync.Mutex
	pages        map[int64]*domain.Page
	touched      map[int64]int
	reconciled   []*domain.RecordSet
	reconcileErr map[int64]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:        make(map[int64]*domain.Page),
		touched:      make(map[int64]int),
		reconcileErr: make(map[int64]error),
	}
}

func (s *fakeStore) Migrate(context.Context) error { return nil }

func (s *fakeStore) EnsureSource(context.Context, domain.Source) (int64, error) { return 1, nil }

func (s *fakeStore) GetPage(_ context.Context, _, pageID int64) (*domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[pageID]
	if !ok {
		return nil, database.ErrPageNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) TouchPage(_ context.Context, _, pageID int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[pageID]++
	return nil
}

func (s *fakeStore) ReconcilePage(_ context.Context, sourceID int64, set *domain.RecordSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reconcileErr[set.Page.PageID]; err != nil {
		return err
	}

	page := set.Page
	page.SourceID = sourceID
	s.pages[page.PageID] = &page
	s.reconciled = append(s.reconciled, set)
	return nil
}

func (s *fakeStore) ListRecords(_ context.Context, category domain.Category) ([]domain.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.SnapshotRecord
	for _, set := range s.reconciled {
		if set.Category != category {
			continue
		}
		records = append(records, domain.SnapshotRecord{
			Title:      set.Page.Title,
			PageID:     set.Page.PageID,
			RevisionID: set.Page.RevisionID,
			Slug:       set.Page.Slug,
		})
	}
	return records, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) revisionOf(pageID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pages[pageID]; ok {
		return p.RevisionID
	}
	return 0
}

func newTestRunner(t *testing.T, fetcher *fakeFetcher, store *fakeStore) *pipeline.Runner {
	t.Helper()

	exporter, err := snapshot.NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	return pipeline.NewRunner(
		fetcher,
		store,
		normalize.NewDefaultRegistry(logger.NewNoOp()),
		exporter,
		logger.NewNoOp(),
		2,
	)
}

func subdistrictFixture(pageID, revID int64, title string) (mediawiki.PageIdentity, mediawiki.PageDetail) {
	identity := mediawiki.PageIdentity{PageID: pageID, Title: title, RevisionID: revID}
	detail := mediawiki.PageDetail{
		PageID:     pageID,
		Title:      title,
		URL:        "https://wiki.test/" + title,
		RevisionID: revID,
		Wikitext:   fmt.Sprintf("'''%s''' is a sub-district.", title),
		Categories: []string{"Category:Cyberpunk_2077_Watson"},
		FetchedAt:  time.Now().UTC(),
	}
	return identity, detail
}

const subdistrictWikiCat = "Category:Cyberpunk_2077_Sub-districts"

func TestRunner_Run_FirstRunProcessesEverything(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{},
		details: map[int64]mediawiki.PageDetail{},
	}
	for i := int64(1); i <= 3; i++ {
		identity, detail := subdistrictFixture(i, 100+i, fmt.Sprintf("District %d", i))
		fetcher.members[subdistrictWikiCat] = append(fetcher.members[subdistrictWikiCat], identity)
		fetcher.details[i] = detail
	}

	store := newFakeStore()
	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategorySubdistricts})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(summary.Categories) != 1 {
		t.Fatalf("expected 1 category summary, got %d", len(summary.Categories))
	}

	cs := summary.Categories[0]
	if cs.Listed != 3 || cs.Processed != 3 || cs.Skipped != 0 || cs.Failed != 0 {
		t.Errorf("unexpected counters: %+v", cs)
	}
	if cs.Status() != pipeline.StatusOK {
		t.Errorf("expected ok status, got %s", cs.Status())
	}
	if got := store.revisionOf(2); got != 102 {
		t.Errorf("expected stored revision 102 for page 2, got %d", got)
	}
}

func TestRunner_Run_SecondRunSkipsUnchanged(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{},
		details: map[int64]mediawiki.PageDetail{},
	}
	store := newFakeStore()

	for i := int64(1); i <= 3; i++ {
		identity, detail := subdistrictFixture(i, 100+i, fmt.Sprintf("District %d", i))
		fetcher.members[subdistrictWikiCat] = append(fetcher.members[subdistrictWikiCat], identity)
		fetcher.details[i] = detail
		// Pages already stored at the listed revision.
		store.pages[i] = &domain.Page{PageID: i, RevisionID: 100 + i}
	}

	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategorySubdistricts})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cs := summary.Categories[0]
	if cs.Skipped != 3 || cs.Processed != 0 {
		t.Errorf("expected all pages skipped, got %+v", cs)
	}

	// The steady-state guarantee: no content fetch at all.
	if calls := fetcher.detailCalls.Load(); calls != 0 {
		t.Errorf("expected zero detail fetches on unchanged run, got %d", calls)
	}
	for i := int64(1); i <= 3; i++ {
		if store.touched[i] != 1 {
			t.Errorf("expected page %d touched once, got %d", i, store.touched[i])
		}
	}
}

func TestRunner_Run_ChangedRevisionRefetched(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{},
		details: map[int64]mediawiki.PageDetail{},
	}
	store := newFakeStore()

	// Page 1 unchanged at 42; page 2 advanced from 42 to 43.
	id1, d1 := subdistrictFixture(1, 42, "Stable")
	id2, d2 := subdistrictFixture(2, 43, "Edited")
	fetcher.members[subdistrictWikiCat] = []mediawiki.PageIdentity{id1, id2}
	fetcher.details[1] = d1
	fetcher.details[2] = d2
	store.pages[1] = &domain.Page{PageID: 1, RevisionID: 42}
	store.pages[2] = &domain.Page{PageID: 2, RevisionID: 42}

	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategorySubdistricts})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cs := summary.Categories[0]
	if cs.Processed != 1 || cs.Skipped != 1 {
		t.Errorf("expected 1 processed + 1 skipped, got %+v", cs)
	}
	if got := store.revisionOf(2); got != 43 {
		t.Errorf("expected page 2 advanced to revision 43, got %d", got)
	}
	if got := store.revisionOf(1); got != 42 {
		t.Errorf("expected page 1 untouched at revision 42, got %d", got)
	}
}

func TestRunner_Run_PageFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{},
		details: map[int64]mediawiki.PageDetail{},
	}
	store := newFakeStore()

	for i := int64(1); i <= 3; i++ {
		identity, detail := subdistrictFixture(i, 100+i, fmt.Sprintf("District %d", i))
		fetcher.members[subdistrictWikiCat] = append(fetcher.members[subdistrictWikiCat], identity)
		fetcher.details[i] = detail
	}
	store.reconcileErr[2] = errors.New("constraint violation")

	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategorySubdistricts})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cs := summary.Categories[0]
	if cs.Processed != 2 || cs.Failed != 1 {
		t.Errorf("expected 2 processed + 1 failed, got %+v", cs)
	}
	if cs.Status() != pipeline.StatusPartial {
		t.Errorf("expected partial status, got %s", cs.Status())
	}
	if len(cs.Failures) != 1 || cs.Failures[0].PageID != 2 {
		t.Errorf("unexpected failures: %+v", cs.Failures)
	}

	// The failed page's revision never advanced, so the next run
	// retries it.
	if got := store.revisionOf(2); got != 0 {
		t.Errorf("expected failed page unstored, got revision %d", got)
	}
}

func TestRunner_Run_ListingFailureRecorded(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{},
		details: map[int64]mediawiki.PageDetail{},
		listErr: map[string]error{
			subdistrictWikiCat: errors.New("upstream down"),
		},
	}
	store := newFakeStore()
	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategorySubdistricts})
	if err != nil {
		t.Fatalf("Run() error = %v (listing failures must not be fatal)", err)
	}

	cs := summary.Categories[0]
	if cs.Failed != 1 {
		t.Fatalf("expected listing failure recorded, got %+v", cs)
	}
	if cs.Status() != pipeline.StatusFailed {
		t.Errorf("expected failed status, got %s", cs.Status())
	}
}

func TestRunner_Run_MergedGroupDeduplicates(t *testing.T) {
	t.Parallel()

	// The OS group fans out to three upstream categories; a page
	// appearing in two of them must be listed and processed once.
	identity := mediawiki.PageIdentity{PageID: 7, Title: "Militech Falcon", RevisionID: 9}
	detail := mediawiki.PageDetail{
		PageID:     7,
		Title:      "Militech Falcon",
		RevisionID: 9,
		Wikitext:   "'''Militech Falcon''' Sandevistan.",
		Categories: []string{"Category:Cyberpunk_2077_Cyberware_-_Sandevistan_Operating_system"},
		FetchedAt:  time.Now().UTC(),
	}

	wikiCats := domain.CategoryCyberwareOS.WikiCategories()
	fetcher := &fakeFetcher{
		members: map[string][]mediawiki.PageIdentity{
			wikiCats[0]: {identity},
			wikiCats[1]: {identity},
		},
		details: map[int64]mediawiki.PageDetail{7: detail},
	}

	store := newFakeStore()
	runner := newTestRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []domain.Category{domain.CategoryCyberwareOS})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cs := summary.Categories[0]
	if cs.Listed != 1 || cs.Processed != 1 {
		t.Errorf("expected deduplicated listing, got %+v", cs)
	}
}
