package memory

import "github.com/scholarline/scholarline/engine/internal/store"

// SampleScholarships is a small starter catalog for the in-memory backend.
// The documents carry no embeddings, so ranking over them is lexical only.
func SampleScholarships() []store.Scholarship {
	return []store.Scholarship{
		{
			ID:            "sch-orange-tulip",
			Name:          "Orange Tulip Scholarship",
			Description:   "Tuition waiver for talented international students pursuing a master's degree in the Netherlands",
			Deadline:      "2027-04-01",
			Location:      "Netherlands",
			University:    "University of Amsterdam",
			Degree:        "Master",
			Fields:        []string{"Engineering", "Computer Science", "Economics"},
			Tags:          []string{"tuition-waiver", "international"},
			URL:           "https://example.org/orange-tulip",
			RequiresEssay: true,
		},
		{
			ID:                "sch-delft-excellence",
			Name:              "Justus & Louise van Effen Excellence Scholarship",
			Description:       "Full scholarship covering tuition and living expenses for excellent MSc applicants",
			Deadline:          "2026-12-01",
			Location:          "Netherlands",
			University:        "TU Delft",
			Degree:            "Master",
			Fields:            []string{"Engineering", "Applied Sciences"},
			Tags:              []string{"full-funding"},
			URL:               "https://example.org/van-effen",
			RequiresTestScore: true,
			RequiresEssay:     true,
		},
		{
			ID:          "sch-daad-epos",
			Name:        "DAAD EPOS Development-Related Postgraduate Courses",
			Description: "German state funding for postgraduate study in development-related fields",
			Deadline:    "2026-10-15",
			Location:    "Germany",
			Degree:      "Master",
			Fields:      []string{"Public Policy", "Engineering", "Agriculture"},
			Tags:        []string{"stipend", "development"},
			URL:         "https://example.org/daad-epos",
		},
		{
			ID:                "sch-chevening",
			Name:              "Chevening Scholarship",
			Description:       "UK government scholarship for one-year master's degrees with leadership focus",
			Deadline:          "2026-11-07",
			Location:          "United Kingdom",
			Degree:            "Master",
			Fields:            []string{"Any"},
			Tags:              []string{"leadership", "full-funding"},
			URL:               "https://example.org/chevening",
			RequiresEssay:     true,
			RequiresTestScore: false,
		},
		{
			ID:          "sch-arts-bursary",
			Name:        "European Arts Bursary",
			Description: "Partial bursary for bachelor and master students in fine arts and design",
			Deadline:    "2027-02-28",
			Location:    "Belgium",
			University:  "KU Leuven",
			Degree:      "Bachelor",
			Fields:      []string{"Fine Arts", "Design"},
			Tags:        []string{"partial-funding"},
			URL:         "https://example.org/arts-bursary",
		},
	}
}
