// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coverage tracks how well retrieved passages address each facet
// of a research question, one hop at a time.
package coverage

import (
	"sort"
	"strings"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

// DefaultCoverThreshold is the score at which an aspect counts as covered
// when the caller does not supply one.
const DefaultCoverThreshold = 0.5

// canonical trims and lowercases an aspect name for use as a Coverage key.
func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Init builds a fresh Coverage map from the extracted aspects: every score
// starts at 0 with covered_at_hop unset.
func Init(aspects []types.Aspect) types.Coverage {
	cov := make(types.Coverage, len(aspects))
	for _, a := range aspects {
		cov[canonical(a.Name)] = &types.CoverageEntry{
			Name:       a.Name,
			Type:       a.Type,
			Importance: a.Importance,
			Score:      0,
			Keywords:   a.Keywords,
		}
	}
	return cov
}

// keywordHits is the fraction of an aspect's keywords that appear as a
// substring of the passage's lowercased text or title.
func keywordHits(keywords []string, text, title string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hay := strings.ToLower(text) + " " + strings.ToLower(title)
	hits := 0
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(hay, k) {
			hits++
		}
	}
	return float64(hits) / float64(maxInt(1, len(keywords)))
}

// docScore blends keyword overlap with the passage's own relevance score.
// Empty keywords always yield 0, regardless of how high P.Score is, so a
// passage can never "accidentally" cover an aspect it says nothing about.
func docScore(keywords []string, p types.Passage) float64 {
	kh := keywordHits(keywords, p.Text, p.Title)
	if kh <= 0 {
		return 0
	}
	return 0.5*kh + 0.5*p.Score
}

// aspectScoreFromHop is the best doc_score among the hop's passages.
func aspectScoreFromHop(keywords []string, passages []types.Passage) float64 {
	best := 0.0
	for _, p := range passages {
		if s := docScore(keywords, p); s > best {
			best = s
		}
	}
	return best
}

// Update folds one hop's passages into coverage for the aspect the hop
// targeted, and returns the per-aspect delta for every aspect whose score
// moved. When targetAspect is empty, every aspect in coverage is scored
// against the hop's passages; this is the degenerate "no target" hop.
// Scores are clamped to [0,1] and are monotonic non-decreasing: a hop can
// only raise an aspect's score, never lower it. covered_at_hop is set on
// the first hop that crosses coverThreshold and is never overwritten.
func Update(cov types.Coverage, passages []types.Passage, hop int, targetAspect string, coverThreshold float64) map[string]float64 {
	delta := make(map[string]float64)
	if len(passages) == 0 {
		return delta
	}

	keys := make([]string, 0, 1)
	if targetAspect != "" {
		keys = append(keys, canonical(targetAspect))
	} else {
		for k := range cov {
			keys = append(keys, k)
		}
	}

	for _, key := range keys {
		entry, ok := cov[key]
		if !ok {
			continue
		}
		newScore := aspectScoreFromHop(entry.Keywords, passages)
		if newScore > 1 {
			newScore = 1
		}
		if newScore < 0 {
			newScore = 0
		}
		if newScore <= entry.Score {
			continue
		}
		delta[entry.Name] = newScore - entry.Score
		entry.Score = newScore
		if entry.CoveredAtHop == nil && entry.Score >= coverThreshold {
			h := hop
			entry.CoveredAtHop = &h
		}
	}
	return delta
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Uncovered returns aspects whose score is below threshold, sorted by
// importance descending; ties keep the iteration order stable by name.
func Uncovered(cov types.Coverage, threshold float64) []types.Aspect {
	out := make([]types.Aspect, 0, len(cov))
	for _, e := range cov {
		if e.Score < threshold {
			out = append(out, entryToAspect(e))
		}
	}
	sortByImportance(out)
	return out
}

// UncoveredCore is Uncovered restricted to aspects with importance ≥
// types.CoreImportance, using the aspect's own cover threshold context
// supplied by the caller.
func UncoveredCore(cov types.Coverage, threshold float64) []types.Aspect {
	all := Uncovered(cov, threshold)
	out := all[:0:0]
	for _, a := range all {
		if a.IsCore() {
			out = append(out, a)
		}
	}
	return out
}

// Percentage is the fraction of aspects in cov that have reached
// threshold. An empty Coverage reports 1.0: there is nothing left uncovered.
func Percentage(cov types.Coverage, threshold float64) float64 {
	if len(cov) == 0 {
		return 1
	}
	covered := 0
	for _, e := range cov {
		if e.Score >= threshold {
			covered++
		}
	}
	return float64(covered) / float64(len(cov))
}

// Weighted is Σ(importance·score)/Σ(importance). An empty Coverage, or one
// where every aspect has zero importance, reports 1.0.
func Weighted(cov types.Coverage) float64 {
	var num, den float64
	for _, e := range cov {
		num += e.Importance * e.Score
		den += e.Importance
	}
	if den == 0 {
		return 1
	}
	v := num / den
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Snapshot renders cov as the ordered CoverageEntry slice ResearchResult
// exposes externally, sorted by importance descending then name.
func Snapshot(cov types.Coverage) []types.CoverageEntry {
	out := make([]types.CoverageEntry, 0, len(cov))
	for _, e := range cov {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func entryToAspect(e *types.CoverageEntry) types.Aspect {
	return types.Aspect{
		Name:       e.Name,
		Type:       e.Type,
		Importance: e.Importance,
		Keywords:   e.Keywords,
	}
}

// sortByImportance orders by importance descending, breaking ties by
// canonical name so that map-derived slices are deterministic across runs
// despite Go's randomized map iteration order.
func sortByImportance(aspects []types.Aspect) {
	sort.Slice(aspects, func(i, j int) bool {
		if aspects[i].Importance != aspects[j].Importance {
			return aspects[i].Importance > aspects[j].Importance
		}
		return canonical(aspects[i].Name) < canonical(aspects[j].Name)
	})
}
