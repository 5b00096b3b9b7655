// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aspect produces the initial facet list for a research question:
// the distinct things the answer needs to address before the loop may
// stop. It prefers an LLM call and falls back to pattern-driven heuristics
// that never fail.
package aspect

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

const (
	coreImportance     = 1.0
	optionalImportance = 0.6
	systemPrompt       = "You extract the distinct facets of a research question so a research agent can plan coverage of each one."
)

// Extract returns the aspects for question, preferring llm when non-nil.
// The second return value reports whether the heuristic fallback was used
// (llm was nil, errored, or returned nothing that parsed). Extract never
// fails: worst case it returns a single synthetic aspect covering the
// whole question.
func Extract(ctx context.Context, llm types.LLMClient, question string) ([]types.Aspect, bool) {
	if llm != nil {
		if aspects, ok := extractWithLLM(ctx, llm, question); ok {
			return order(aspects), false
		}
	}
	return order(heuristic(question)), true
}

type llmAspect struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Importance float64  `json:"importance"`
	Keywords   []string `json:"keywords"`
}

type llmAspectResponse struct {
	Aspects []llmAspect `json:"aspects"`
}

var aspectExtractionPromptTmpl = template.Must(template.New("aspect-extraction").Parse(`Extract the distinct facets ("aspects") of the question below that a research agent must cover before it can answer completely.

Produce between 1 and 10 aspects. For each, give:
- name: a short descriptive label (no more than 120 characters)
- type: one of "definition", "comparison", "process", "causal", "evaluation", "application", "temporal", "other"
- importance: a number in [0,1]; 1.0 for an aspect the answer cannot omit, 0.6 for one that enriches the answer but is not essential
- keywords: 1-5 lowercase terms that would appear in a passage covering this aspect

Respond with a JSON object of the form {"aspects": [{"name": "...", "type": "...", "importance": 0.0, "keywords": ["..."]}]}. Do not include any text outside the JSON object.

Question:
{{.Question}}
`))

func renderAspectPrompt(question string) (string, error) {
	var buf bytes.Buffer
	if err := aspectExtractionPromptTmpl.Execute(&buf, struct{ Question string }{Question: question}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractWithLLM(ctx context.Context, llm types.LLMClient, question string) ([]types.Aspect, bool) {
	prompt, err := renderAspectPrompt(question)
	if err != nil {
		return nil, false
	}
	text, err := llm.Generate(ctx, systemPrompt, prompt, types.GenerateOptions{Temperature: 0, MaxTokens: 1024})
	if err != nil {
		return nil, false
	}

	var resp llmAspectResponse
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &resp); err != nil {
		return nil, false
	}

	var out []types.Aspect
	seen := map[string]bool{}
	for _, a := range resp.Aspects {
		name := strings.TrimSpace(a.Name)
		if name == "" || len(name) > 120 {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		aType := types.AspectType(a.Type)
		if !validAspectType(aType) {
			continue
		}
		importance := a.Importance
		if importance < 0 || importance > 1 {
			continue
		}
		seen[key] = true
		out = append(out, types.Aspect{
			Name:       name,
			Type:       aType,
			Importance: importance,
			Keywords:   normalizeKeywords(a.Keywords),
		})
		if len(out) == 10 {
			break
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func validAspectType(t types.AspectType) bool {
	switch t {
	case types.AspectDefinition, types.AspectComparison, types.AspectProcess, types.AspectCausal,
		types.AspectEvaluation, types.AspectApplication, types.AspectTemporal, types.AspectOther:
		return true
	}
	return false
}

// extractJSONObject trims any prose the model wrapped around the JSON
// object, returning the substring from the first '{' to the last '}'.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

var (
	comparisonRe = regexp.MustCompile(`(?i)compare\s+(.+?)\s+(?:and|vs\.?|versus)\s+(.+?)(?:\?|$)|(.+?)\s+vs\.?\s+(.+?)(?:\?|$)`)
	whatIsRe     = regexp.MustCompile(`(?i)^\s*what\s+is\s+(.+?)\??\s*$`)
	stopwords    = map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true, "of": true, "in": true,
		"to": true, "and": true, "or": true, "what": true, "how": true, "why": true, "does": true,
		"do": true, "for": true, "on": true, "with": true, "between": true,
	}
)

// heuristic is the pattern-driven fallback: comparison questions produce
// three aspects, "what is X" produces one definition aspect, and anything
// else produces a single core aspect over the question's content words.
func heuristic(question string) []types.Aspect {
	if m := comparisonRe.FindStringSubmatch(question); m != nil {
		left, right := strings.TrimSpace(pick(m, 1, 3)), strings.TrimSpace(pick(m, 2, 4))
		if left != "" && right != "" {
			// The comparison itself is what the question asks for; each side's
			// standalone definition enriches the answer but isn't essential on
			// its own, so only the comparison aspect is core.
			return []types.Aspect{
				{Name: "Definition of " + left, Type: types.AspectDefinition, Importance: optionalImportance, Keywords: contentWords(left)},
				{Name: "Definition of " + right, Type: types.AspectDefinition, Importance: optionalImportance, Keywords: contentWords(right)},
				{Name: "Comparison of " + left + " and " + right, Type: types.AspectComparison, Importance: coreImportance, Keywords: append(contentWords(left), contentWords(right)...)},
			}
		}
	}

	if m := whatIsRe.FindStringSubmatch(question); m != nil {
		topic := strings.TrimSpace(m[1])
		return []types.Aspect{
			{Name: "Definition of " + topic, Type: types.AspectDefinition, Importance: coreImportance, Keywords: contentWords(topic)},
		}
	}

	return []types.Aspect{
		{Name: strings.TrimSpace(question), Type: types.AspectOther, Importance: coreImportance, Keywords: contentWords(question)},
	}
}

func pick(m []string, i, j int) string {
	if i < len(m) && m[i] != "" {
		return m[i]
	}
	if j < len(m) {
		return m[j]
	}
	return ""
}

// contentWords lowercases, tokenizes, strips stopwords and punctuation,
// and dedupes; heuristic uses it to build aspect keywords.
func contentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if f == "" || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func normalizeKeywords(keywords []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// order sorts aspects by importance descending; ties keep appearance order.
func order(aspects []types.Aspect) []types.Aspect {
	indexed := make([]struct {
		a   types.Aspect
		idx int
	}, len(aspects))
	for i, a := range aspects {
		indexed[i] = struct {
			a   types.Aspect
			idx int
		}{a, i}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].a.Importance > indexed[j].a.Importance
	})
	out := make([]types.Aspect, len(indexed))
	for i, e := range indexed {
		out[i] = e.a
	}
	return out
}
