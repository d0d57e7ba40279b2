package capability

import (
	"context"

	"github.com/scholarline/scholarline/engine/internal/search"
	"github.com/scholarline/scholarline/engine/internal/store"
)

const SearchScholarshipsName = "search_scholarships"

// ScholarshipProjection is the document view handed to the oracle; it never
// carries the embedding.
type ScholarshipProjection struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Deadline          string   `json:"deadline,omitempty"`
	Location          string   `json:"location,omitempty"`
	University        string   `json:"university,omitempty"`
	Degree            string   `json:"degree,omitempty"`
	Fields            []string `json:"fields,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	URL               string   `json:"url,omitempty"`
	RequiresTestScore bool     `json:"requires_test_score"`
	RequiresEssay     bool     `json:"requires_essay"`
	Score             float64  `json:"score"`
}

func SearchScholarships(ranker *search.Ranker, defaultLimit int) Capability {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return Capability{
		Name:        SearchScholarshipsName,
		Description: "Search for scholarships matching the query. Use this when the user is looking for scholarships or asks about available opportunities.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Free-text search query describing what the user is looking for.",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of results to return.",
				},
			},
			"required": []string{"query"},
		},
		Args: []ArgSpec{
			{Name: "query", Type: "string", Required: true},
			{Name: "limit", Type: "number"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			limit := defaultLimit
			if value, ok := numberArg(args, "limit"); ok && int(value) > 0 {
				limit = int(value)
			}
			hits, err := ranker.Search(ctx, stringArg(args, "query"), limit)
			if err != nil {
				return nil, &ExecutionError{Capability: SearchScholarshipsName, Err: err}
			}
			projections := make([]ScholarshipProjection, 0, len(hits))
			for _, hit := range hits {
				projections = append(projections, toProjection(hit.Scholarship, hit.Score))
			}
			return projections, nil
		},
	}
}

func toProjection(s store.Scholarship, score float64) ScholarshipProjection {
	return ScholarshipProjection{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Deadline:          s.Deadline,
		Location:          s.Location,
		University:        s.University,
		Degree:            s.Degree,
		Fields:            s.Fields,
		Tags:              s.Tags,
		URL:               s.URL,
		RequiresTestScore: s.RequiresTestScore,
		RequiresEssay:     s.RequiresEssay,
		Score:             score,
	}
}
