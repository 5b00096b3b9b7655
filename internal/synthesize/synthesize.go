// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize combines a research loop's hop log into a final
// cited answer, preferring an LLM call and falling back to deterministic
// per-aspect concatenation.
package synthesize

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/prasannaarjun/hopscout/internal/coverage"
	"github.com/prasannaarjun/hopscout/pkg/types"
)

const (
	snippetWindow = 240
	systemPrompt  = "You write a final answer to a research question from the evidence a multi-hop search gathered, citing passages by their short identifiers."
)

// Synthesize builds the ResearchResult's Question, Answer, Citations, and
// HopLog/Coverage snapshots from the finished hop log. The returned bool
// reports whether the LLM path was unavailable and the deterministic
// fallback was used. Synthesize always produces an answer.
func Synthesize(ctx context.Context, llm types.LLMClient, question string, hopLog []types.SubQueryRecord, cov types.Coverage) (types.ResearchResult, bool) {
	citations := buildCitations(hopLog)

	result := types.ResearchResult{
		Question:  question,
		Citations: citations,
		HopLog:    hopLog,
		Coverage:  coverage.Snapshot(cov),
	}

	if llm != nil {
		if answer, ok := synthesizeWithLLM(ctx, llm, question, hopLog, cov, citations); ok {
			result.Answer = answer
			return result, false
		}
	}

	result.Answer = synthesizeDeterministic(question, hopLog, cov, citations)
	return result, true
}

// buildCitations dedups passages by id across every hop, keeping the
// highest score seen, and orders the result by score descending.
func buildCitations(hopLog []types.SubQueryRecord) []types.Citation {
	best := make(map[string]types.Passage)
	order := make([]string, 0)
	for _, hop := range hopLog {
		for _, p := range hop.Passages {
			if existing, ok := best[p.ID]; !ok {
				best[p.ID] = p
				order = append(order, p.ID)
			} else if p.Score > existing.Score {
				best[p.ID] = p
			}
		}
	}

	citations := make([]types.Citation, 0, len(order))
	for _, id := range order {
		p := best[id]
		citations = append(citations, types.Citation{
			ID:       p.ID,
			Title:    p.Title,
			Filename: p.Filename,
			Score:    p.Score,
			Snippet:  snippet(p),
		})
	}
	sort.SliceStable(citations, func(i, j int) bool { return citations[i].Score > citations[j].Score })
	return citations
}

// snippet returns roughly snippetWindow characters of the passage's text
// centered on the first word of three or more characters. Aspect keywords
// and the passage's title or filename are not used to choose the anchor.
func snippet(p types.Passage) string {
	text := strings.TrimSpace(p.Text)
	if len(text) <= snippetWindow {
		return text
	}
	anchor := firstKeywordIndex(text)
	half := snippetWindow / 2
	start := anchor - half
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(text) {
		end = len(text)
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}
	out := text[start:end]
	if start > 0 {
		if i := strings.IndexByte(out, ' '); i >= 0 {
			out = out[i+1:]
		}
	}
	if end < len(text) {
		if i := strings.LastIndexByte(out, ' '); i >= 0 {
			out = out[:i]
		}
	}
	return strings.TrimSpace(out)
}

// firstKeywordIndex returns the offset of the first whitespace-separated
// word in text that has three or more characters once surrounding
// punctuation is trimmed; snippet uses it as its only anchor.
func firstKeywordIndex(text string) int {
	fields := strings.Fields(text)
	pos := 0
	for _, f := range fields {
		if len(strings.Trim(f, ".,;:!?()\"'")) >= 3 {
			return pos
		}
		pos += len(f) + 1
	}
	return 0
}

func synthesizeDeterministic(question string, hopLog []types.SubQueryRecord, cov types.Coverage, citations []types.Citation) string {
	if len(citations) == 0 {
		return noEvidenceAnswer(question, cov)
	}

	bestPerAspect := make(map[string]types.Passage)
	for _, hop := range hopLog {
		if hop.TargetAspect == "" || len(hop.Passages) == 0 {
			continue
		}
		top := hop.Passages[0]
		for _, p := range hop.Passages {
			if p.Score > top.Score {
				top = p
			}
		}
		key := strings.ToLower(strings.TrimSpace(hop.TargetAspect))
		if existing, ok := bestPerAspect[key]; !ok || top.Score > existing.Score {
			bestPerAspect[key] = top
		}
	}

	snap := coverage.Snapshot(cov)
	var paragraphs []string
	var notCovered []string
	for _, entry := range snap {
		key := strings.ToLower(strings.TrimSpace(entry.Name))
		if entry.CoveredAtHop == nil {
			notCovered = append(notCovered, entry.Name)
			continue
		}
		p, ok := bestPerAspect[key]
		if !ok {
			notCovered = append(notCovered, entry.Name)
			continue
		}
		paragraphs = append(paragraphs, fmt.Sprintf("%s: %s", entry.Name, truncate(p.Text, snippetWindow)))
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	if len(notCovered) > 0 {
		b.WriteString("Not fully covered: " + strings.Join(notCovered, ", ") + ".")
	}
	return strings.TrimSpace(b.String())
}

func noEvidenceAnswer(question string, cov types.Coverage) string {
	snap := coverage.Snapshot(cov)
	var uncovered []string
	for _, e := range snap {
		uncovered = append(uncovered, e.Name)
	}
	if len(uncovered) == 0 {
		return fmt.Sprintf("No passages were retrieved for %q.", question)
	}
	return fmt.Sprintf("No passages were retrieved for %q. Aspects that remained uncovered: %s.", question, strings.Join(uncovered, ", "))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}

func synthesizeWithLLM(ctx context.Context, llm types.LLMClient, question string, hopLog []types.SubQueryRecord, cov types.Coverage, citations []types.Citation) (string, bool) {
	prompt := buildSynthesisPrompt(question, hopLog, cov, citations)
	text, err := llm.Generate(ctx, systemPrompt, prompt, types.GenerateOptions{Temperature: 0.2, MaxTokens: 1024})
	if err != nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	return strings.TrimSpace(text), true
}

var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`Question: {{.Question}}

Evidence gathered:
{{range .EvidenceLines}}{{.}}
{{end}}
Coverage snapshot:
{{range .CoverageLines}}{{.}}
{{end}}
Write a complete answer to the question, citing evidence inline using the bracketed identifiers above (e.g. [#3]). Keep it concise.
`))

func buildSynthesisPrompt(question string, hopLog []types.SubQueryRecord, cov types.Coverage, citations []types.Citation) string {
	idByPassage := make(map[string]int, len(citations))
	for i, c := range citations {
		idByPassage[c.ID] = i + 1
	}

	var evidence []string
	for _, hop := range hopLog {
		evidence = append(evidence, fmt.Sprintf("Sub-query %d (%s): %s", hop.Hop, hop.TargetAspect, hop.SubQuery))
		for _, p := range hop.Passages {
			evidence = append(evidence, fmt.Sprintf("  [#%d] %s", idByPassage[p.ID], truncate(p.Text, 200)))
		}
	}

	var coverageLines []string
	for _, e := range coverage.Snapshot(cov) {
		coverageLines = append(coverageLines, fmt.Sprintf("  %s: score=%.2f covered=%v", e.Name, e.Score, e.CoveredAtHop != nil))
	}

	var buf bytes.Buffer
	synthesisPromptTmpl.Execute(&buf, struct {
		Question      string
		EvidenceLines []string
		CoverageLines []string
	}{Question: question, EvidenceLines: evidence, CoverageLines: coverageLines})
	return buf.String()
}
