// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

// Memory is an in-process research.Retriever over a fixed passage set,
// used by the research loop's tests and by callers that pre-load a small
// corpus without a database. It scores each passage as the fraction of the
// query's lowercase alphanumeric terms (stopwords included) that appear in
// the passage text or title.
type Memory struct {
	Passages []types.Passage
	// Err, when set, is returned by every call to Retrieve.
	Err error
}

// Retrieve implements research.Retriever.
func (m *Memory) Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = len(m.Passages)
	}

	terms := queryTerms(query)
	scored := make([]types.Passage, 0, len(m.Passages))
	for _, p := range m.Passages {
		p.Score = termScore(terms, p.Text, p.Title)
		scored = append(scored, p)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func queryTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func termScore(terms []string, text, title string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(text + " " + title)
	hits := 0
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
