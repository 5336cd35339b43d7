package pipeline_test

import (
	"testing"

	"wikiseed/internal/domain"
	"wikiseed/internal/mediawiki"
	"wikiseed/internal/pipeline"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stored   *domain.Page
		observed mediawiki.PageIdentity
		want     pipeline.Decision
	}{
		{
			name:     "unknown page is new",
			stored:   nil,
			observed: mediawiki.PageIdentity{PageID: 1, RevisionID: 42},
			want:     pipeline.DecisionNew,
		},
		{
			name:     "matching revision is unchanged",
			stored:   &domain.Page{PageID: 1, RevisionID: 42},
			observed: mediawiki.PageIdentity{PageID: 1, RevisionID: 42},
			want:     pipeline.DecisionUnchanged,
		},
		{
			name:     "advanced revision is changed",
			stored:   &domain.Page{PageID: 1, RevisionID: 42},
			observed: mediawiki.PageIdentity{PageID: 1, RevisionID: 43},
			want:     pipeline.DecisionChanged,
		},
		{
			name:     "missing observed revision cannot prove unchanged",
			stored:   &domain.Page{PageID: 1, RevisionID: 42},
			observed: mediawiki.PageIdentity{PageID: 1, RevisionID: 0},
			want:     pipeline.DecisionChanged,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := pipeline.Decide(tt.stored, tt.observed); got != tt.want {
				t.Errorf("Decide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecision_String(t *testing.T) {
	t.Parallel()

	if got := pipeline.DecisionNew.String(); got != "new" {
		t.Errorf("DecisionNew.String() = %q", got)
	}
	if got := pipeline.Decision(99).String(); got != "unknown" {
		t.Errorf("unknown decision String() = %q", got)
	}
}
