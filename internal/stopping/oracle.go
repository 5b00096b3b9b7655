// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stopping implements the pure decision ladder that decides,
// after each hop, whether the research loop should continue.
package stopping

import (
	"github.com/prasannaarjun/hopscout/internal/coverage"
	"github.com/prasannaarjun/hopscout/pkg/types"
)

// CoreWeightedThreshold is the minimum weighted coverage required, on top
// of an empty uncovered-core set, before core_aspects_covered may fire.
const CoreWeightedThreshold = 0.7

// Input is everything the oracle needs to decide. It is read-only; Decide
// never mutates Coverage.
type Input struct {
	Hop              int
	LastHopPassages  []types.Passage
	Coverage         types.Coverage
	MinHops          int
	MaxHops          int
	AspectsEnabled   bool
	CoverThreshold   float64
	QualityThreshold float64
}

// Decision is the oracle's verdict and the rule name that produced it.
type Decision struct {
	Stop   bool
	Reason string
}

// Decide applies the six-rule ladder from the component design: the first
// matching rule fires and no later rule is consulted.
func Decide(in Input) Decision {
	if in.Hop >= in.MaxHops {
		return Decision{Stop: true, Reason: "max_hops"}
	}
	if in.Hop < in.MinHops {
		return Decision{Stop: false, Reason: "below_min_hops"}
	}
	if in.AspectsEnabled {
		uncoveredCore := coverage.UncoveredCore(in.Coverage, in.CoverThreshold)
		if len(uncoveredCore) == 0 {
			if coverage.Weighted(in.Coverage) >= CoreWeightedThreshold {
				return Decision{Stop: true, Reason: "core_aspects_covered"}
			}
			// No core aspect remains uncovered, but the weighted average is
			// still dragged below threshold by low-scoring optional aspects.
			// Rule 4 does not apply here; fall through to the generic rule.
		} else {
			return Decision{Stop: false, Reason: "core_aspects_uncovered"}
		}
	} else if averagePassageScore(in.LastHopPassages) >= in.QualityThreshold && len(in.LastHopPassages) > 0 {
		return Decision{Stop: true, Reason: "sufficient_quality"}
	}
	return Decision{Stop: false, Reason: "continue"}
}

func averagePassageScore(passages []types.Passage) float64 {
	if len(passages) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range passages {
		sum += p.Score
	}
	return sum / float64(len(passages))
}
