package httpserver

import (
	"encoding/json"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
	"github.com/kiorlabs/duplicate-review-service/internal/groups"
	"github.com/kiorlabs/duplicate-review-service/internal/similarity"
)

// Response types for JSON serialization. Field names follow the camelCase
// convention of the project backend's wire format.

type groupResponse struct {
	MainArticle     domain.Article          `json:"mainArticle"`
	SimilarArticles []domain.SimilarArticle `json:"similarArticles"`
	Confidence      int                     `json:"confidence"`
	ConfidenceTier  string                  `json:"confidenceTier"`
	HasDOIMatch     bool                    `json:"hasDoiMatch"`
}

type listDuplicatesResponse struct {
	Groups   []groupResponse `json:"groups"`
	Total    int             `json:"total"`
	Filtered int             `json:"filtered"`
	Stats    groups.Stats    `json:"stats"`
}

type detectResponse struct {
	Summary domain.DetectionSummary `json:"summary"`
	Message string                  `json:"message"`
}

type resolveResponse struct {
	Success    bool   `json:"success"`
	Resolution string `json:"resolution"`
	Message    string `json:"message"`
}

type resolveAllResponse struct {
	Success              bool                        `json:"success"`
	DuplicateGroupsFound int                         `json:"duplicateGroupsFound"`
	Statistics           domain.ResolveAllStatistics `json:"statistics"`
}

type resolutionSummaryResponse struct {
	Data json.RawMessage `json:"data"`
}

type fieldScore struct {
	Score float64 `json:"score"`
	Tier  string  `json:"tier"`
}

type fieldScores struct {
	Title    fieldScore `json:"title"`
	Authors  fieldScore `json:"authors"`
	Journal  fieldScore `json:"journal"`
	Date     fieldScore `json:"date"`
	Abstract fieldScore `json:"abstract"`
	DOI      fieldScore `json:"doi"`
	Overall  fieldScore `json:"overall"`
}

type comparisonResponse struct {
	MainArticle    domain.Article `json:"mainArticle"`
	SimilarArticle domain.Article `json:"similarArticle"`
	Confidence     int            `json:"confidence"`
	ConfidenceTier string         `json:"confidenceTier"`
	Scores         fieldScores    `json:"scores"`
}

// Converter functions

func toGroupResponses(list []domain.DuplicateGroup) []groupResponse {
	out := make([]groupResponse, len(list))
	for i, g := range list {
		out[i] = groupResponse{
			MainArticle:     g.MainArticle,
			SimilarArticles: g.SimilarArticles,
			Confidence:      g.Confidence,
			ConfidenceTier:  string(similarity.ConfidenceTier(g.Confidence)),
			HasDOIMatch:     g.HasDOIMatch(),
		}
	}
	return out
}

func toFieldScores(s domain.SimilarityScores) fieldScores {
	return fieldScores{
		Title:    toFieldScore(s.Title),
		Authors:  toFieldScore(s.Authors),
		Journal:  toFieldScore(s.Journal),
		Date:     toFieldScore(s.Date),
		Abstract: toFieldScore(s.Abstract),
		DOI:      toFieldScore(s.DOI),
		Overall:  toFieldScore(s.Overall),
	}
}

func toFieldScore(score float64) fieldScore {
	return fieldScore{
		Score: score,
		Tier:  string(similarity.ScoreTier(score)),
	}
}
