// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research implements the multi-hop research loop: the state
// machine that decomposes a question into aspects, drives sub-query
// generation and retrieval one hop at a time, tracks coverage, and hands
// the finished hop log to the answer synthesizer.
package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prasannaarjun/hopscout/internal/aspect"
	"github.com/prasannaarjun/hopscout/internal/complexity"
	"github.com/prasannaarjun/hopscout/internal/coverage"
	"github.com/prasannaarjun/hopscout/internal/stopping"
	"github.com/prasannaarjun/hopscout/internal/subquery"
	"github.com/prasannaarjun/hopscout/internal/synthesize"
	"github.com/prasannaarjun/hopscout/pkg/types"
)

// ErrInvalidQuestion is returned when the question is empty, exceeds the
// length bound after trimming, or carries contradictory hop budgets.
var ErrInvalidQuestion = errors.New("invalid question")

// ErrDependencyUnavailable is reserved for a dependency failure that
// prevents progress even after every heuristic fallback has been tried.
// Every fallback path in this package is total, so in practice this is
// never returned; it exists to satisfy the external contract.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

const maxQuestionLen = 4000

// Retriever is the passage source the loop calls once per hop. It must be
// scoped to the caller's corpus externally; the loop passes no identity.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error)
}

// GenerateOptions and LLMClient are defined in pkg/types so that the
// aspect, subquery, and synthesize packages can depend on the LLM
// interface without importing this package back.
type GenerateOptions = types.GenerateOptions
type LLMClient = types.LLMClient

// Options configures one research run.
type Options struct {
	PerSubK          int
	MinHops          int
	MaxHops          int
	CoverThreshold   float64
	QualityThreshold float64
	Adaptive         bool
	// Log receives one line of progress per hop and one line at stop. It
	// defaults to io.Discard.
	Log io.Writer
}

func (o Options) withDefaults() Options {
	if o.PerSubK <= 0 {
		o.PerSubK = 3
	}
	if o.MinHops <= 0 {
		o.MinHops = 3
	}
	if o.MaxHops <= 0 {
		o.MaxHops = 10
	}
	if o.CoverThreshold <= 0 {
		o.CoverThreshold = coverage.DefaultCoverThreshold
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = 0.5
	}
	if o.Log == nil {
		o.Log = io.Discard
	}
	if !o.Adaptive {
		// Adaptive=false, the zero value, selects batch mode; withDefaults
		// leaves it as the caller set it. Aspect-guided mode needs
		// Adaptive=true set explicitly.
	}
	return o
}

// Loop orchestrates one research run over a fixed Retriever and LLMClient.
// A Loop holds no per-run state; calls to Run are not safe concurrently —
// the spec is single-flight per run by design.
type Loop struct {
	retriever Retriever
	llm       LLMClient
	opts      Options
}

// NewLoop builds a Loop. llm may be nil to force the heuristic path.
func NewLoop(retriever Retriever, llm LLMClient, opts Options) *Loop {
	return &Loop{retriever: retriever, llm: llm, opts: opts.withDefaults()}
}

// Run executes one research run to completion (or cancellation) and
// returns the full ResearchResult. The only errors returned wrap
// ErrInvalidQuestion; dependency failures and cancellation are absorbed
// into the result's metadata.
func (l *Loop) Run(ctx context.Context, question string) (types.ResearchResult, error) {
	q := strings.TrimSpace(question)
	if q == "" || len(q) > maxQuestionLen {
		return types.ResearchResult{}, fmt.Errorf("%w: question must be 1..%d characters after trimming", ErrInvalidQuestion, maxQuestionLen)
	}
	if l.opts.MinHops > l.opts.MaxHops {
		return types.ResearchResult{}, fmt.Errorf("%w: min_hops (%d) exceeds max_hops (%d)", ErrInvalidQuestion, l.opts.MinHops, l.opts.MaxHops)
	}

	cx := complexity.Analyze(q, l.opts.MinHops, l.opts.MaxHops)

	aspects, extractorFellBack := aspect.Extract(ctx, l.llm, q)
	cov := coverage.Init(aspects)

	var (
		hopLog          []types.SubQueryRecord
		retrievalErrors int
		cancelled       bool
		stopReason      string
	)
	if l.opts.Adaptive {
		hopLog, retrievalErrors, cancelled, stopReason = l.runAdaptive(ctx, q, aspects, cov)
	} else {
		hopLog, retrievalErrors, cancelled, stopReason = l.runBatch(ctx, q, cov, cx.HopTarget)
	}

	result, synthFellBack := synthesize.Synthesize(ctx, l.llm, q, hopLog, cov)
	result.Metadata = types.ResearchMetadata{
		Mode:              adaptiveMode(l.opts.Adaptive),
		EstimatedHops:     cx.HopTarget,
		ActualHops:        len(hopLog),
		EarlyStop:         cancelled || (stopReason != "max_hops" && len(hopLog) > 0),
		ComplexityScore:   cx.Score,
		WeightedCoverage:  coverage.Weighted(cov),
		StopReason:        stopReason,
		ExtractorFallback: extractorFellBack,
		SynthFallback:     synthFellBack,
		RetrievalErrors:   retrievalErrors,
		Cancelled:         cancelled,
	}

	fmt.Fprintf(l.opts.Log, "stopping: reason=%q hops=%d\n", stopReason, len(hopLog))
	return result, nil
}

// runAdaptive drives the aspect-guided loop: each hop targets the highest
// importance uncovered aspect and the stopping oracle decides whether to
// continue after updating coverage.
func (l *Loop) runAdaptive(ctx context.Context, question string, aspects []types.Aspect, cov types.Coverage) (hopLog []types.SubQueryRecord, retrievalErrors int, cancelled bool, stopReason string) {
	hop := 0
	for {
		if ctx.Err() != nil {
			cancelled = true
			stopReason = "cancelled"
			return
		}
		hop++

		sq, targetAspect, fromLLM := l.nextSubQuery(ctx, question, cov, hop)

		passages, retrErr := l.retrieve(ctx, sq)
		if retrErr != nil {
			retrievalErrors++
		}

		delta := coverage.Update(cov, passages, hop, targetAspect, l.opts.CoverThreshold)

		record := types.SubQueryRecord{
			Hop:           hop,
			SubQuery:      sq,
			TargetAspect:  targetAspect,
			Passages:      passages,
			CoverageDelta: delta,
			FromLLM:       fromLLM,
		}
		if retrErr != nil {
			record.RetrievalError = retrErr.Error()
		}
		hopLog = append(hopLog, record)
		fmt.Fprintf(l.opts.Log, "hop %d: subquery=%q aspect=%q passages=%d\n", hop, sq, targetAspect, len(passages))

		decision := stopping.Decide(stopping.Input{
			Hop:              hop,
			LastHopPassages:  passages,
			Coverage:         cov,
			MinHops:          l.opts.MinHops,
			MaxHops:          l.opts.MaxHops,
			AspectsEnabled:   len(aspects) > 0,
			CoverThreshold:   l.opts.CoverThreshold,
			QualityThreshold: l.opts.QualityThreshold,
		})
		if decision.Stop {
			stopReason = decision.Reason
			return
		}
	}
}

// runBatch drives batch mode: all sub-queries are generated up front from
// the complexity estimate, one per uncovered aspect in importance order,
// and retrieval still proceeds sequentially. Retained for compatibility
// per the loop variant named in the glossary. hopTarget is
// complexity.Analyze's estimate, already clamped into [MinHops, MaxHops],
// so the batch it drives always satisfies MinHops on its own; no top-up
// pass is needed.
func (l *Loop) runBatch(ctx context.Context, question string, cov types.Coverage, hopTarget int) (hopLog []types.SubQueryRecord, retrievalErrors int, cancelled bool, stopReason string) {
	uncovered := coverage.Uncovered(cov, l.opts.CoverThreshold)
	batch := subquery.GenerateBatch(ctx, l.llm, question, uncovered, hopTarget)

	for _, pair := range batch {
		if len(hopLog) >= l.opts.MaxHops {
			break
		}
		if ctx.Err() != nil {
			cancelled = true
			stopReason = "cancelled"
			return
		}
		hop := len(hopLog) + 1

		passages, retrErr := l.retrieve(ctx, pair.SubQuery)
		if retrErr != nil {
			retrievalErrors++
		}
		delta := coverage.Update(cov, passages, hop, pair.Aspect, l.opts.CoverThreshold)

		record := types.SubQueryRecord{
			Hop:           hop,
			SubQuery:      pair.SubQuery,
			TargetAspect:  pair.Aspect,
			Passages:      passages,
			CoverageDelta: delta,
			FromLLM:       pair.FromLLM,
		}
		if retrErr != nil {
			record.RetrievalError = retrErr.Error()
		}
		hopLog = append(hopLog, record)
		fmt.Fprintf(l.opts.Log, "hop %d: subquery=%q aspect=%q passages=%d\n", hop, pair.SubQuery, pair.Aspect, len(passages))
	}

	if len(hopLog) >= l.opts.MaxHops {
		stopReason = "max_hops"
	} else {
		stopReason = "batch_complete"
	}
	return
}

func (l *Loop) retrieve(ctx context.Context, query string) ([]types.Passage, error) {
	return l.retriever.Retrieve(ctx, query, l.opts.PerSubK)
}

// nextSubQuery picks the next sub-query to issue in aspect-guided mode. If
// no aspects remain uncovered (or none were ever extracted) it degenerates
// to the main question itself, with a null target aspect.
func (l *Loop) nextSubQuery(ctx context.Context, question string, cov types.Coverage, hop int) (sq, targetAspect string, fromLLM bool) {
	uncovered := coverage.Uncovered(cov, l.opts.CoverThreshold)
	if len(uncovered) == 0 {
		return question, "", false
	}
	pairs := subquery.Next(ctx, l.llm, question, uncovered, 1)
	if len(pairs) == 0 {
		return question, "", false
	}
	return pairs[0].SubQuery, pairs[0].Aspect, pairs[0].FromLLM
}

func adaptiveMode(adaptive bool) string {
	if adaptive {
		return "adaptive"
	}
	return "batch"
}
