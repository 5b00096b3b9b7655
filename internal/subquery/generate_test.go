package subquery

import (
	"context"
	"testing"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

func TestNextTemplateByType(t *testing.T) {
	cases := []struct {
		aspect types.Aspect
		want   string
	}{
		{types.Aspect{Name: "Definition of Python", Type: types.AspectDefinition}, "What is Python?"},
		{types.Aspect{Name: "Comparison of Go and Rust", Type: types.AspectComparison}, "What are the differences in Go and Rust?"},
		{types.Aspect{Name: "How it scales", Type: types.AspectProcess}, "How does How it scales work?"},
		{types.Aspect{Name: "Pros and cons", Type: types.AspectEvaluation}, "What are the pros and cons of Pros and cons?"},
	}
	for _, tc := range cases {
		pairs := Next(context.Background(), nil, "irrelevant", []types.Aspect{tc.aspect}, 1)
		if len(pairs) != 1 {
			t.Fatalf("Next(%q) returned %d pairs, want 1", tc.aspect.Name, len(pairs))
		}
		if pairs[0].SubQuery != tc.want {
			t.Errorf("Next(%q) = %q, want %q", tc.aspect.Name, pairs[0].SubQuery, tc.want)
		}
		if pairs[0].Aspect != tc.aspect.Name {
			t.Errorf("Aspect = %q, want %q", pairs[0].Aspect, tc.aspect.Name)
		}
	}
}

func TestNextBoundsLength(t *testing.T) {
	longName := make([]byte, 500)
	for i := range longName {
		longName[i] = 'a'
	}
	a := types.Aspect{Name: string(longName), Type: types.AspectOther}
	pairs := Next(context.Background(), nil, "q", []types.Aspect{a}, 1)
	if len(pairs[0].SubQuery) > maxSubQueryLen {
		t.Errorf("len(SubQuery) = %d, want <= %d", len(pairs[0].SubQuery), maxSubQueryLen)
	}
}

func TestNextEmptyUncoveredReturnsNothing(t *testing.T) {
	pairs := Next(context.Background(), nil, "q", nil, 1)
	if len(pairs) != 0 {
		t.Errorf("pairs = %v, want none", pairs)
	}
}

func TestGenerateBatchProducesHopTargetPairs(t *testing.T) {
	aspects := []types.Aspect{
		{Name: "Definition of Go", Type: types.AspectDefinition, Importance: 1.0},
		{Name: "Definition of Rust", Type: types.AspectDefinition, Importance: 1.0},
	}
	pairs := GenerateBatch(context.Background(), nil, "Compare Go and Rust", aspects, 2)
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(pairs))
	}
}

type llmStub struct{ text string }

func (s llmStub) Generate(ctx context.Context, systemPrompt, userPrompt string, opts types.GenerateOptions) (string, error) {
	return s.text, nil
}

func TestNextUsesLLMPairsWhenTheyParse(t *testing.T) {
	llm := llmStub{text: `{"sub_queries": [{"aspect": "Definition of Go", "sub_query": "What makes Go distinctive?"}]}`}
	pairs := Next(context.Background(), llm, "q", []types.Aspect{{Name: "Definition of Go", Type: types.AspectDefinition}}, 1)
	if len(pairs) != 1 || !pairs[0].FromLLM || pairs[0].SubQuery != "What makes Go distinctive?" {
		t.Fatalf("pairs = %+v, want the LLM-produced sub-query", pairs)
	}
}

func TestNextFallsBackPerAspectWhenLLMMissesAPair(t *testing.T) {
	llm := llmStub{text: `{"sub_queries": [{"aspect": "Definition of Go", "sub_query": "What makes Go distinctive?"}]}`}
	aspects := []types.Aspect{
		{Name: "Definition of Go", Type: types.AspectDefinition},
		{Name: "Definition of Rust", Type: types.AspectDefinition},
	}
	pairs := Next(context.Background(), llm, "q", aspects, 2)
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(pairs))
	}
	if pairs[1].FromLLM {
		t.Error("second pair should have fallen back to a template, not come from the LLM")
	}
	if pairs[1].SubQuery != "What is Rust?" {
		t.Errorf("fallback SubQuery = %q, want %q", pairs[1].SubQuery, "What is Rust?")
	}
}
