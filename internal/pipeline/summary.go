package pipeline

import (
	"sync"
	"time"

	"wikiseed/internal/domain"
)

// Category status values reported in the run summary.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// PageFailure records one page that could not be processed this run.
// The page's stored revision was not advanced, so the next run retries.
type PageFailure struct {
	PageID int64  `json:"pageid"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// CategorySummary accumulates per-category counters. Workers update it
// concurrently through the mutex-guarded methods.
type CategorySummary struct {
	Category    domain.Category `json:"category"`
	Listed      int             `json:"listed"`
	Processed   int             `json:"processed"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	RecordCount int             `json:"record_count"`
	Failures    []PageFailure   `json:"failures,omitempty"`

	mu sync.Mutex
}

// AddProcessed counts one fully reconciled page.
func (cs *CategorySummary) AddProcessed() {
	cs.mu.Lock()
	cs.Processed++
	cs.mu.Unlock()
}

// AddSkipped counts one unchanged page.
func (cs *CategorySummary) AddSkipped() {
	cs.mu.Lock()
	cs.Skipped++
	cs.mu.Unlock()
}

// AddFailure records one failed page.
func (cs *CategorySummary) AddFailure(pageID int64, title, reason string) {
	cs.mu.Lock()
	cs.Failed++
	cs.Failures = append(cs.Failures, PageFailure{PageID: pageID, Title: title, Reason: reason})
	cs.mu.Unlock()
}

// Status derives the category outcome from its counters.
func (cs *CategorySummary) Status() string {
	switch {
	case cs.Failed == 0:
		return StatusOK
	case cs.Processed > 0 || cs.Skipped > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// Summary is the user-visible result of one run.
type Summary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Categories []*CategorySummary `json:"categories"`
}

// TotalFailed sums page failures across categories.
func (s *Summary) TotalFailed() int {
	total := 0
	for _, cs := range s.Categories {
		total += cs.Failed
	}
	return total
}
