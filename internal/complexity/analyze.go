// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package complexity estimates how many hops a research question likely
// needs before any retrieval happens.
// Implements: spec §4.1 Complexity Analyzer.
package complexity

import (
	"regexp"
	"strings"
)

// Indicators records which complexity signals fired for a question and the
// raw length factor, for callers that want to explain a score.
type Indicators struct {
	MultiAspect  bool
	Comparison   bool
	Causal       bool
	Process      bool
	Evaluation   bool
	Temporal     bool
	LengthFactor float64
}

// Result is the output of Analyze: a normalized complexity score and the
// hop target it implies, clamped to [minHops, maxHops].
type Result struct {
	Score      float64
	HopTarget  int
	Indicators Indicators
}

var (
	multiAspectRe = regexp.MustCompile(`\band\b|\bor\b|,|\?.*\?`)
	comparisonRe  = regexp.MustCompile(`\bcompare|\bdifference|\bvs\b|\bversus\b`)
	causalRe      = regexp.MustCompile(`\bwhy\b|\bcause\b|\breason\b`)
	processRe     = regexp.MustCompile(`\bhow\b|\bsteps\b|\bmechanism\b`)
	evaluationRe  = regexp.MustCompile(`\bbest\b|\bworst\b|\bpros\b|\bcons\b|\badvantages\b|\bdisadvantages\b`)
	temporalRe    = regexp.MustCompile(`\bwhen\b|\bhistory\b|\bfuture\b|\btrend\b`)
)

// Analyze scores a question's complexity and returns a hop target clamped
// to [minHops, maxHops]. It performs no I/O and is safe to call concurrently.
func Analyze(question string, minHops, maxHops int) Result {
	lower := strings.ToLower(question)

	ind := Indicators{
		MultiAspect: multiAspectRe.MatchString(lower),
		Comparison:  comparisonRe.MatchString(lower),
		Causal:      causalRe.MatchString(lower),
		Process:     processRe.MatchString(lower),
		Evaluation:  evaluationRe.MatchString(lower),
		Temporal:    temporalRe.MatchString(lower),
	}

	words := strings.Fields(question)
	ind.LengthFactor = clamp01(float64(len(words)) / 30.0)

	score := 0.0
	if ind.MultiAspect {
		score += 0.2
	}
	if ind.Comparison {
		score += 0.3
	}
	if ind.Causal {
		score += 0.2
	}
	if ind.Process {
		score += 0.2
	}
	if ind.Evaluation {
		score += 0.25
	}
	if ind.Temporal {
		score += 0.15
	}
	score += 0.2 * ind.LengthFactor
	score = clamp01(score)

	var target int
	switch {
	case score < 0.2:
		target = 3
	case score < 0.6:
		target = 7
	default:
		target = 10
	}
	if minHops > 0 && target < minHops {
		target = minHops
	}
	if maxHops > 0 && target > maxHops {
		target = maxHops
	}

	return Result{Score: score, HopTarget: target, Indicators: ind}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
