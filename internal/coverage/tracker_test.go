package coverage

import (
	"testing"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

func aspects() []types.Aspect {
	return []types.Aspect{
		{Name: "Definition of Python", Type: types.AspectDefinition, Importance: 1.0, Keywords: []string{"python"}},
		{Name: "Use cases", Type: types.AspectApplication, Importance: 0.6, Keywords: []string{"use", "case"}},
	}
}

func TestInitStartsAtZero(t *testing.T) {
	cov := Init(aspects())
	if len(cov) != 2 {
		t.Fatalf("len(cov) = %d, want 2", len(cov))
	}
	for _, e := range cov {
		if e.Score != 0 || e.CoveredAtHop != nil {
			t.Errorf("entry %q = %+v, want zero score and nil CoveredAtHop", e.Name, e)
		}
	}
}

func TestUpdateIsMonotonicAndSetsCoveredAtHop(t *testing.T) {
	cov := Init(aspects())
	passages := []types.Passage{
		{ID: "p1", Text: "Python is a programming language.", Score: 0.9},
	}

	delta1 := Update(cov, passages, 1, "Definition of Python", DefaultCoverThreshold)
	if len(delta1) != 1 {
		t.Fatalf("delta1 = %v, want one entry", delta1)
	}
	entry := cov[canonical("Definition of Python")]
	if entry.CoveredAtHop == nil || *entry.CoveredAtHop != 1 {
		t.Fatalf("CoveredAtHop = %v, want 1", entry.CoveredAtHop)
	}
	firstScore := entry.Score

	delta2 := Update(cov, []types.Passage{{ID: "p2", Text: "irrelevant", Score: 0.9}}, 2, "Definition of Python", DefaultCoverThreshold)
	if len(delta2) != 0 {
		t.Fatalf("delta2 = %v, want no change from a non-matching passage", delta2)
	}
	if entry.Score < firstScore {
		t.Fatalf("score decreased: %f -> %f", firstScore, entry.Score)
	}
	if *entry.CoveredAtHop != 1 {
		t.Fatalf("CoveredAtHop was overwritten: %d", *entry.CoveredAtHop)
	}
}

func TestUpdateEmptyKeywordsNeverCovers(t *testing.T) {
	cov := Init([]types.Aspect{{Name: "mystery", Importance: 1.0}})
	delta := Update(cov, []types.Passage{{ID: "p1", Text: "anything at all", Score: 1.0}}, 1, "mystery", DefaultCoverThreshold)
	if len(delta) != 0 {
		t.Fatalf("delta = %v, want no coverage for an aspect with no keywords", delta)
	}
}

func TestUpdateEmptyPassagesNoChange(t *testing.T) {
	cov := Init(aspects())
	delta := Update(cov, nil, 1, "Definition of Python", DefaultCoverThreshold)
	if len(delta) != 0 {
		t.Fatalf("delta = %v, want no change for an empty passage list", delta)
	}
}

func TestUncoveredOrderedByImportance(t *testing.T) {
	cov := Init(aspects())
	uncovered := Uncovered(cov, DefaultCoverThreshold)
	if len(uncovered) != 2 {
		t.Fatalf("len(uncovered) = %d, want 2", len(uncovered))
	}
	if uncovered[0].Name != "Definition of Python" {
		t.Errorf("uncovered[0] = %q, want the higher-importance aspect first", uncovered[0].Name)
	}
}

func TestUncoveredCoreFiltersByImportance(t *testing.T) {
	cov := Init(aspects())
	core := UncoveredCore(cov, DefaultCoverThreshold)
	if len(core) != 1 || core[0].Name != "Definition of Python" {
		t.Errorf("core = %v, want only the importance>=0.8 aspect", core)
	}
}

func TestWeightedWithinBounds(t *testing.T) {
	cov := Init(aspects())
	Update(cov, []types.Passage{{ID: "p1", Text: "python basics", Score: 1.0}}, 1, "Definition of Python", DefaultCoverThreshold)
	w := Weighted(cov)
	if w < 0 || w > 1 {
		t.Errorf("Weighted = %f, want within [0,1]", w)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	passages := []types.Passage{{ID: "p1", Text: "python basics", Score: 0.9}}

	covA := Init(aspects())
	Update(covA, passages, 1, "Definition of Python", DefaultCoverThreshold)
	Update(covA, passages, 2, "Definition of Python", DefaultCoverThreshold)

	covB := Init(aspects())
	Update(covB, passages, 1, "Definition of Python", DefaultCoverThreshold)

	a := covA[canonical("Definition of Python")]
	b := covB[canonical("Definition of Python")]
	if a.Score != b.Score {
		t.Errorf("re-applying the same hop changed the score: %f vs %f", a.Score, b.Score)
	}
}
