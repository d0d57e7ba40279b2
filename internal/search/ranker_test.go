package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/scholarline/scholarline/engine/internal/store"
	memorystore "github.com/scholarline/scholarline/engine/internal/store/memory"
)

type stubEmbedder struct {
	vector []float64
	err    error
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vector, s.err
}

func seedCatalog() *memorystore.MemoryStore {
	catalog := memorystore.New()
	catalog.SeedScholarships([]store.Scholarship{
		{
			ID:          "sch-1",
			Name:        "Engineering Excellence Scholarship",
			Description: "Full funding for engineering students",
			University:  "TU Delft",
			Degree:      "Masters",
			Fields:      []string{"engineering"},
			Embedding:   []float64{1, 0, 0},
		},
		{
			ID:          "sch-2",
			Name:        "Arts Fellowship",
			Description: "Support for fine arts",
			University:  "Royal Academy",
			Degree:      "Bachelors",
			Fields:      []string{"arts"},
			Embedding:   []float64{0, 1, 0},
		},
		{
			ID:          "sch-3",
			Name:        "General Merit Award",
			Description: "Open to all disciplines",
			University:  "State University",
			Degree:      "Any",
			Embedding:   []float64{0.5, 0.5, 0},
		},
	})
	return catalog
}

func TestSearch_RanksVectorAndLexical(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{vector: []float64{1, 0, 0}})

	hits, err := ranker.Search(context.Background(), "engineering scholarship", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Scholarship.ID != "sch-1" {
		t.Errorf("top hit = %s, want sch-1", hits[0].Scholarship.ID)
	}
	if hits[0].VectorScore < 0.99 {
		t.Errorf("vector score = %f", hits[0].VectorScore)
	}
	if hits[0].LexicalScore <= hits[1].LexicalScore {
		t.Errorf("lexical score should favor sch-1: %f vs %f", hits[0].LexicalScore, hits[1].LexicalScore)
	}
	want := 0.7*hits[0].VectorScore + 0.3*hits[0].LexicalScore
	if math.Abs(hits[0].Score-want) > 1e-9 {
		t.Errorf("combined score = %f, want %f", hits[0].Score, want)
	}
	if hits[0].Scholarship.Embedding != nil {
		t.Errorf("embedding leaked into projection")
	}
}

func TestSearch_FuzzyTermMatching(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{vector: []float64{0, 0, 1}})

	// misspelled query still matches the engineering scholarship lexically
	hits, err := ranker.Search(context.Background(), "enginering", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var target *Hit
	for i := range hits {
		if hits[i].Scholarship.ID == "sch-1" {
			target = &hits[i]
		}
	}
	if target == nil {
		t.Fatal("sch-1 missing from results")
	}
	if target.LexicalScore == 0 {
		t.Errorf("fuzzy match failed for misspelled term")
	}
}

func TestSearch_Deterministic(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{vector: []float64{0.3, 0.3, 0.1}})

	first, err := ranker.Search(context.Background(), "university award", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ranker.Search(context.Background(), "university award", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result count changed between runs")
		}
		for j := range again {
			if again[j].Scholarship.ID != first[j].Scholarship.ID || again[j].Score != first[j].Score {
				t.Fatalf("ordering changed between runs: %v vs %v", again, first)
			}
		}
	}
}

func TestSearch_TieBreakByID(t *testing.T) {
	catalog := memorystore.New()
	catalog.SeedScholarships([]store.Scholarship{
		{ID: "sch-b", Name: "Twin Award", Embedding: []float64{1, 0}},
		{ID: "sch-a", Name: "Twin Award", Embedding: []float64{1, 0}},
	})
	ranker := NewRanker(catalog, stubEmbedder{vector: []float64{1, 0}})

	hits, err := ranker.Search(context.Background(), "twin", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 || hits[0].Scholarship.ID != "sch-a" || hits[1].Scholarship.ID != "sch-b" {
		t.Errorf("tie-break not by ascending ID: %v", hits)
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{vector: []float64{1, 0, 0}})
	hits, err := ranker.Search(context.Background(), "scholarship", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearch_EmbedderFailure(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{err: errors.New("provider down")})
	if _, err := ranker.Search(context.Background(), "engineering", 5); err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	ranker := NewRanker(seedCatalog(), stubEmbedder{vector: []float64{1, 0, 0}})
	if _, err := ranker.Search(context.Background(), "   ", 5); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors = %f, want 1", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors = %f, want 0", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Errorf("opposite vectors = %f, want -1", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}); got != 0 {
		t.Errorf("mismatched lengths = %f, want 0", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("empty vectors = %f, want 0", got)
	}
}
