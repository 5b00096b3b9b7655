package aspect

import (
	"context"
	"testing"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

func TestExtractWhatIsProducesOneDefinition(t *testing.T) {
	aspects, fellBack := Extract(context.Background(), nil, "What is Python?")
	if !fellBack {
		t.Error("fellBack = false, want true with a nil LLM")
	}
	if len(aspects) != 1 {
		t.Fatalf("len(aspects) = %d, want 1", len(aspects))
	}
	if !aspects[0].IsCore() {
		t.Error("definition aspect should be core")
	}
	found := false
	for _, kw := range aspects[0].Keywords {
		if kw == "python" {
			found = true
		}
	}
	if !found {
		t.Errorf("keywords = %v, want to contain %q", aspects[0].Keywords, "python")
	}
}

func TestExtractComparisonProducesThreeAspects(t *testing.T) {
	aspects, _ := Extract(context.Background(), nil, "Compare self-attention and multi-head attention")
	if len(aspects) != 3 {
		t.Fatalf("len(aspects) = %d, want 3", len(aspects))
	}
	coreCount := 0
	for _, a := range aspects {
		if a.IsCore() {
			coreCount++
			if a.Type != types.AspectComparison {
				t.Errorf("core aspect %q should be the comparison itself, got type %q", a.Name, a.Type)
			}
		}
	}
	if coreCount != 1 {
		t.Errorf("coreCount = %d, want exactly 1 (the comparison); the two definitions enrich but aren't essential", coreCount)
	}
}

func TestExtractGenericFallbackProducesOneCoreAspect(t *testing.T) {
	aspects, _ := Extract(context.Background(), nil, "Tell me about the history of computing")
	if len(aspects) != 1 {
		t.Fatalf("len(aspects) = %d, want 1", len(aspects))
	}
	if !aspects[0].IsCore() {
		t.Error("generic fallback aspect should be core")
	}
	if len(aspects[0].Keywords) == 0 {
		t.Error("generic fallback aspect should carry the question's content words as keywords")
	}
}

func TestExtractOrderedByImportanceDescending(t *testing.T) {
	aspects, _ := Extract(context.Background(), nil, "Compare Go and Rust")
	for i := 1; i < len(aspects); i++ {
		if aspects[i].Importance > aspects[i-1].Importance {
			t.Fatalf("aspects not importance-ordered: %+v", aspects)
		}
	}
}

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, opts types.GenerateOptions) (string, error) {
	return s.text, s.err
}

func TestExtractPrefersLLMWhenItParses(t *testing.T) {
	llm := stubLLM{text: `{"aspects": [{"name": "Definition of Go", "type": "definition", "importance": 1.0, "keywords": ["go", "language"]}]}`}
	aspects, fellBack := Extract(context.Background(), llm, "What is Go?")
	if fellBack {
		t.Error("fellBack = true, want false when the LLM response parses")
	}
	if len(aspects) != 1 || aspects[0].Name != "Definition of Go" {
		t.Fatalf("aspects = %+v, want the LLM's single aspect", aspects)
	}
}

func TestExtractFallsBackOnLLMError(t *testing.T) {
	llm := stubLLM{err: context.DeadlineExceeded}
	aspects, fellBack := Extract(context.Background(), llm, "What is Go?")
	if !fellBack {
		t.Error("fellBack = false, want true when the LLM errors")
	}
	if len(aspects) != 1 {
		t.Fatalf("aspects = %+v, want heuristic fallback", aspects)
	}
}

func TestExtractFallsBackOnMalformedLLMResponse(t *testing.T) {
	llm := stubLLM{text: "not json at all"}
	_, fellBack := Extract(context.Background(), llm, "What is Go?")
	if !fellBack {
		t.Error("fellBack = false, want true for an unparseable LLM response")
	}
}
