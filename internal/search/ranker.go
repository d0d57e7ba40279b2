package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/scholarline/scholarline/engine/internal/store"
)

// Embedder turns query text into a vector comparable with the catalog's
// precomputed document embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Catalog is the document source; the ranker only reads from it.
type Catalog interface {
	ListScholarships(ctx context.Context, limit int) ([]store.Scholarship, error)
}

// Hit is one ranked result. Embedding is stripped from the projection.
type Hit struct {
	Scholarship  store.Scholarship
	Score        float64
	VectorScore  float64
	LexicalScore float64
}

const (
	vectorWeight  = 0.7
	lexicalWeight = 0.3
	// catalogScanLimit bounds how many documents one query scores.
	catalogScanLimit = 1000
)

// fieldWeights order the lexical fields by descending importance.
var fieldWeights = []struct {
	weight float64
	value  func(store.Scholarship) string
}{
	{5, func(s store.Scholarship) string { return s.Name }},
	{4, func(s store.Scholarship) string { return s.Description }},
	{3, func(s store.Scholarship) string { return s.University }},
	{2, func(s store.Scholarship) string { return s.Degree }},
	{2, func(s store.Scholarship) string { return strings.Join(s.Fields, " ") }},
	{1, func(s store.Scholarship) string { return s.Location }},
	{1, func(s store.Scholarship) string { return strings.Join(s.Tags, " ") }},
}

const maxFieldWeight = 5.0

// LexicalOnly is an Embedder for deployments without an embedding backend.
// It returns no vector, so ranking falls back to the lexical score alone.
type LexicalOnly struct{}

func (LexicalOnly) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

type Ranker struct {
	catalog  Catalog
	embedder Embedder
}

func NewRanker(catalog Catalog, embedder Embedder) *Ranker {
	return &Ranker{catalog: catalog, embedder: embedder}
}

// Search scores every catalog document as
// 0.7*cosine(queryEmbedding, docEmbedding) + 0.3*lexical and returns the top
// limit hits, descending by score, ties broken by ascending document ID.
func (r *Ranker) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = 5
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	documents, err := r.catalog.ListScholarships(ctx, catalogScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	terms := queryTerms(query)
	hits := make([]Hit, 0, len(documents))
	for _, document := range documents {
		vectorScore := CosineSimilarity(queryEmbedding, document.Embedding)
		lexicalScore := lexicalScore(terms, document)
		hit := Hit{
			Scholarship:  document,
			VectorScore:  vectorScore,
			LexicalScore: lexicalScore,
			Score:        vectorWeight*vectorScore + lexicalWeight*lexicalScore,
		}
		hit.Scholarship.Embedding = nil
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Scholarship.ID < hits[j].Scholarship.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func queryTerms(query string) []string {
	raw := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(raw))
	for _, term := range raw {
		term = strings.Trim(term, ".,;:!?\"'()")
		if len(term) > 1 {
			terms = append(terms, term)
		}
	}
	return terms
}

// lexicalScore is the normalized multi-field weighted match in [0,1]. Each
// query term contributes the weight of the most important field it fuzzily
// matches.
func lexicalScore(terms []string, document store.Scholarship) float64 {
	if len(terms) == 0 {
		return 0
	}
	total := 0.0
	for _, term := range terms {
		best := 0.0
		for _, field := range fieldWeights {
			if field.weight <= best {
				continue
			}
			if termMatchesField(term, field.value(document)) {
				best = field.weight
			}
		}
		total += best
	}
	return total / (float64(len(terms)) * maxFieldWeight)
}

func termMatchesField(term, field string) bool {
	if field == "" {
		return false
	}
	words := strings.Fields(strings.ToLower(field))
	matches := fuzzy.Find(term, words)
	for _, match := range matches {
		// require a reasonably tight match, not just a scattered
		// subsequence: every pattern rune matched within a word no more
		// than two runes longer than the term
		if len(words[match.Index]) <= len(term)+2 {
			return true
		}
	}
	return false
}

func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
