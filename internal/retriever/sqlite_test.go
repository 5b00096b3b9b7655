// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "passages.db"), "user-1", 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRetrieveFindsMatchingPassage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.IngestBatch(ctx, []types.Passage{
		{ID: "p1", Title: "Transformers", Text: "The transformer architecture relies on self-attention.", Score: 0.9},
		{ID: "p2", Title: "Gardening", Text: "Tomatoes need full sun and regular watering.", Score: 0.2},
	})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}

	got, err := s.Retrieve(ctx, "transformer attention", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected only p1, got %+v", got)
	}
}

func TestRetrieveScopesByUser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passages.db")
	ctx := context.Background()

	sA, err := Open(path, "user-a", 10)
	if err != nil {
		t.Fatalf("Open A: %v", err)
	}
	defer sA.Close()
	if err := sA.IngestBatch(ctx, []types.Passage{{ID: "a1", Text: "alpha content here", Score: 1}}); err != nil {
		t.Fatalf("ingest A: %v", err)
	}

	sB, err := Open(path, "user-b", 10)
	if err != nil {
		t.Fatalf("Open B: %v", err)
	}
	defer sB.Close()

	got, err := sB.Retrieve(ctx, "alpha", 5)
	if err != nil {
		t.Fatalf("Retrieve B: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected user B to see no passages from user A, got %+v", got)
	}
}

func TestRetrieveEmptyQueryFallsBackToScan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.IngestBatch(ctx, []types.Passage{
		{ID: "p1", Text: "first passage", Score: 0.4},
		{ID: "p2", Text: "second passage", Score: 0.9},
	}); err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}

	got, err := s.Retrieve(ctx, "", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p2" {
		t.Fatalf("expected both passages ordered by score, got %+v", got)
	}
}

func TestRetrieveUnindexableQueryFiltersByLike(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.IngestBatch(ctx, []types.Passage{
		{ID: "marked", Text: "see the *** footnote for details", Score: 0.1},
		{ID: "unmarked", Text: "an ordinary passage with no markers", Score: 0.9},
	}); err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}

	got, err := s.Retrieve(ctx, "***", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "marked" {
		t.Fatalf("expected the LIKE scan to filter on the literal query text, got %+v", got)
	}
}

func TestRetrieveTopKLimitsResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.IngestBatch(ctx, []types.Passage{
			{ID: string(rune('a' + i)), Text: "shared keyword content", Score: float64(i)},
		}); err != nil {
			t.Fatalf("IngestBatch: %v", err)
		}
	}

	got, err := s.Retrieve(ctx, "keyword", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(got))
	}
}
