// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package subquery turns the currently uncovered aspects of a research
// question into focused sub-queries to send to the retriever, preferring
// an LLM call and falling back to per-aspect-type templates.
package subquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

const maxSubQueryLen = 300

// Pair is one generated sub-query paired with the aspect it targets.
// FromLLM records whether the LLM path produced it (used by callers to
// satisfy the keyword-containment testable property, which the LLM path
// is exempt from).
type Pair struct {
	SubQuery string
	Aspect   string
	FromLLM  bool
}

const systemPrompt = "You turn a research question and a target facet into one focused natural-language search query."

// Next returns up to max sub-queries for the highest-importance uncovered
// aspects (already importance-sorted by the caller), one per aspect. It
// never returns more pairs than len(uncovered) or more than max.
func Next(ctx context.Context, llm types.LLMClient, question string, uncovered []types.Aspect, max int) []Pair {
	if max <= 0 {
		max = 1
	}
	if len(uncovered) > max {
		uncovered = uncovered[:max]
	}
	if len(uncovered) == 0 {
		return nil
	}

	if llm != nil {
		if pairs, ok := generateWithLLM(ctx, llm, question, uncovered); ok {
			return pairs
		}
	}
	return templatePairs(uncovered)
}

// GenerateBatch generates hopTarget sub-queries up front, one per
// uncovered aspect in importance order, cycling back to the front of the
// list if there are fewer uncovered aspects than hopTarget. Used by batch
// mode (Options.Adaptive=false). uncovered must be non-empty; the research
// loop only calls this with a freshly initialized coverage map, which
// aspect.Extract guarantees has at least one entry.
func GenerateBatch(ctx context.Context, llm types.LLMClient, question string, uncovered []types.Aspect, hopTarget int) []Pair {
	if hopTarget <= 0 {
		hopTarget = 1
	}

	var out []Pair
	for len(out) < hopTarget {
		remaining := hopTarget - len(out)
		batch := uncovered
		if len(batch) > remaining {
			batch = batch[:remaining]
		}
		out = append(out, Next(ctx, llm, question, batch, len(batch))...)
	}
	return out
}

type llmPair struct {
	Aspect   string `json:"aspect"`
	SubQuery string `json:"sub_query"`
}

type llmSubqueryResponse struct {
	SubQueries []llmPair `json:"sub_queries"`
}

var subqueryPromptTmpl = template.Must(template.New("subquery").Parse(`Given the research question and the facets below, write one focused natural-language search query per facet.

Question: {{.Question}}

Facets (name: type, importance label):
{{.Facets}}

Respond with a JSON object {"sub_queries": [{"aspect": "<facet name>", "sub_query": "<query text>"}]} with exactly one entry per facet, in the order given. Do not include any text outside the JSON object.
`))

func renderSubqueryPrompt(question, facets string) (string, error) {
	var buf bytes.Buffer
	err := subqueryPromptTmpl.Execute(&buf, struct{ Question, Facets string }{Question: question, Facets: facets})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func generateWithLLM(ctx context.Context, llm types.LLMClient, question string, aspects []types.Aspect) ([]Pair, bool) {
	var facetLines strings.Builder
	for _, a := range aspects {
		fmt.Fprintf(&facetLines, "- %s: %s, %s\n", a.Name, a.Type, importanceLabel(a.Importance))
	}
	prompt, err := renderSubqueryPrompt(question, facetLines.String())
	if err != nil {
		return nil, false
	}

	text, err := llm.Generate(ctx, systemPrompt, prompt, types.GenerateOptions{Temperature: 0.3, MaxTokens: 512})
	if err != nil {
		return nil, false
	}

	var resp llmSubqueryResponse
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &resp); err != nil {
		return nil, false
	}

	byAspect := make(map[string]string, len(resp.SubQueries))
	for _, p := range resp.SubQueries {
		name := strings.TrimSpace(p.Aspect)
		sq := strings.TrimSpace(p.SubQuery)
		if name == "" || sq == "" {
			continue
		}
		byAspect[strings.ToLower(name)] = bound(sq)
	}

	var pairs []Pair
	for _, a := range aspects {
		if sq, ok := byAspect[strings.ToLower(a.Name)]; ok {
			pairs = append(pairs, Pair{SubQuery: sq, Aspect: a.Name, FromLLM: true})
			continue
		}
		// Missing pairs fall back to template generation per-aspect.
		pairs = append(pairs, Pair{SubQuery: templateFor(a), Aspect: a.Name, FromLLM: false})
	}
	if len(pairs) == 0 {
		return nil, false
	}
	return pairs, true
}

func importanceLabel(importance float64) string {
	if importance >= types.CoreImportance {
		return "core"
	}
	return "optional"
}

func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func templatePairs(aspects []types.Aspect) []Pair {
	pairs := make([]Pair, len(aspects))
	for i, a := range aspects {
		pairs[i] = Pair{SubQuery: templateFor(a), Aspect: a.Name, FromLLM: false}
	}
	return pairs
}

var topicPrefixes = []string{
	"definition of ", "comparison of ", "comparison between ", "differences between ",
}

// topic derives the subject of a sub-query template from an aspect name by
// stripping the leading phrases the heuristic extractor itself generates.
func topic(name string) string {
	lower := strings.ToLower(name)
	for _, p := range topicPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(name[len(p):])
		}
	}
	return name
}

// templateFor renders the per-aspect-type sub-query template, collapses
// whitespace, and bounds the result to maxSubQueryLen.
func templateFor(a types.Aspect) string {
	t := topic(a.Name)
	var sq string
	switch a.Type {
	case types.AspectDefinition:
		sq = fmt.Sprintf("What is %s?", t)
	case types.AspectComparison:
		sq = fmt.Sprintf("What are the differences in %s?", t)
	case types.AspectProcess:
		sq = fmt.Sprintf("How does %s work?", t)
	case types.AspectCausal:
		sq = fmt.Sprintf("Why is %s important?", t)
	case types.AspectEvaluation:
		sq = fmt.Sprintf("What are the pros and cons of %s?", t)
	case types.AspectApplication:
		sq = fmt.Sprintf("What are the applications of %s?", t)
	default:
		sq = a.Name
		if !strings.HasSuffix(strings.TrimSpace(sq), "?") {
			sq += "?"
		}
	}
	return bound(collapseWhitespace(sq))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func bound(s string) string {
	if len(s) <= maxSubQueryLen {
		return s
	}
	return s[:maxSubQueryLen]
}
