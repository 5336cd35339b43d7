// Package pipeline orchestrates a sync run: listing, change detection,
// bounded-concurrency fetching and normalization, reconciliation, and
// snapshot export.
package pipeline

import (
	"wikiseed/internal/domain"
	"wikiseed/internal/mediawiki"
)

// Decision classifies a listed page against its stored state.
type Decision int

const (
	// DecisionNew means no page row exists for this identity yet.
	DecisionNew Decision = iota
	// DecisionChanged means the observed revision differs from the
	// stored one (or the listing did not surface a revision).
	DecisionChanged
	// DecisionUnchanged means the stored revision matches; the content
	// fetch is skipped entirely.
	DecisionUnchanged
)

// String returns the string representation of a decision.
func (d Decision) String() string {
	switch d {
	case DecisionNew:
		return "new"
	case DecisionChanged:
		return "changed"
	case DecisionUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Decide compares a freshly listed identity against the stored page.
// This is the run's core efficiency mechanism: it bounds content
// fetching to changed pages. A listing that carries no revision ID
// cannot prove the page unchanged, so it conservatively re-fetches.
func Decide(stored *domain.Page, observed mediawiki.PageIdentity) Decision {
	if stored == nil {
		return DecisionNew
	}

	if observed.RevisionID != 0 && stored.RevisionID == observed.RevisionID {
		return DecisionUnchanged
	}

	return DecisionChanged
}
