// Package domain contains the core types for duplicate review:
// bibliographic articles, per-pair similarity scores, and duplicate groups.
package domain

import "time"

// DuplicateStatus describes where an article sits in the duplicate lifecycle.
type DuplicateStatus string

// Duplicate lifecycle states. An article moves from unset to duplicate on a
// detection run and from duplicate to resolved on a resolve action. Backward
// transitions only happen through a fresh detection run on the backend.
const (
	DuplicateStatusUnset     DuplicateStatus = ""
	DuplicateStatusDuplicate DuplicateStatus = "duplicate"
	DuplicateStatusResolved  DuplicateStatus = "resolved"
)

// Author is a single author entry as imported by the ingestion pipeline.
// Order within an article's author list matches the author order on the paper.
type Author struct {
	Name string `json:"name"`
}

// Article is a bibliographic record. The ID is immutable; every other field
// is supplied by the external import pipeline and treated as read-only here.
type Article struct {
	ID              string          `json:"id"`
	Title           string          `json:"title,omitempty"`
	Authors         []Author        `json:"authors,omitempty"`
	Journal         string          `json:"journal,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
	Abstract        string          `json:"abstract,omitempty"`
	DOI             string          `json:"doi,omitempty"`
	DuplicateStatus DuplicateStatus `json:"duplicateStatus,omitempty"`
}

// Year returns the publication year, or 0 if the article has no date.
func (a *Article) Year() int {
	if a.Date == nil {
		return 0
	}
	return a.Date.Year()
}

// SimilarityScores holds per-field similarity for one article pair.
// All fields are in [0,1]. DOI is exactly 1 only on exact equality of
// non-empty DOIs, otherwise 0.
type SimilarityScores struct {
	Title    float64 `json:"title"`
	Authors  float64 `json:"authors"`
	Journal  float64 `json:"journal"`
	Date     float64 `json:"date"`
	Abstract float64 `json:"abstract"`
	DOI      float64 `json:"doi"`
	Overall  float64 `json:"overall"`
}

// SimilarArticle pairs a candidate duplicate with its scores against the
// group's main article.
type SimilarArticle struct {
	Article Article          `json:"article"`
	Scores  SimilarityScores `json:"scores"`
}

// DuplicateGroup is one cluster of candidate duplicates: a main article plus
// one or more similar articles. Confidence is the backend-computed integer
// percentage and is treated as ground truth; this service never recomputes it.
//
// Groups are ephemeral snapshots. They are replaced wholesale after every
// successful detect or resolve call, never mutated in place.
type DuplicateGroup struct {
	MainArticle     Article          `json:"mainArticle"`
	SimilarArticles []SimilarArticle `json:"similarArticles"`
	Confidence      int              `json:"confidence"`
}

// HasDOIMatch reports whether any similar article in the group is an exact
// DOI match with the main article.
func (g *DuplicateGroup) HasDOIMatch() bool {
	for _, sa := range g.SimilarArticles {
		if sa.Scores.DOI == 1 {
			return true
		}
	}
	return false
}

// MaxOverallScore returns the highest overall similarity among the group's
// similar articles, or 0 if the group has none.
func (g *DuplicateGroup) MaxOverallScore() float64 {
	max := 0.0
	for _, sa := range g.SimilarArticles {
		if sa.Scores.Overall > max {
			max = sa.Scores.Overall
		}
	}
	return max
}

// DetectionSummary is the backend's summary of a detection run.
type DetectionSummary struct {
	TotalGroups   int `json:"totalGroups"`
	TotalArticles int `json:"totalArticles"`
}

// ResolveAllStatistics is the backend's authoritative accounting after a
// bulk resolve. The client-side remaining-article estimate is advisory only
// and must be reconciled against these numbers.
type ResolveAllStatistics struct {
	DuplicatesRemoved int    `json:"duplicatesRemoved"`
	FinalArticles     int    `json:"finalArticles"`
	Reduction         string `json:"reduction"`
}

// ResolveAllResult combines the group summary and statistics returned by the
// backend's resolve-all operation.
type ResolveAllResult struct {
	DuplicateGroupsFound int                  `json:"duplicateGroupsFound"`
	Statistics           ResolveAllStatistics `json:"statistics"`
}

// Resolution is the action taken when resolving one article pair.
type Resolution string

// Supported resolution actions for a single duplicate pair.
const (
	ResolutionKeepMain     Resolution = "keep_main"
	ResolutionKeepSimilar  Resolution = "keep_similar"
	ResolutionNotDuplicate Resolution = "not_duplicate"
)

// IsValidResolution reports whether r is a supported resolution action.
func IsValidResolution(r Resolution) bool {
	switch r {
	case ResolutionKeepMain, ResolutionKeepSimilar, ResolutionNotDuplicate:
		return true
	}
	return false
}
