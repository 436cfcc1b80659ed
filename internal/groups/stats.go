package groups

import "github.com/kiorlabs/duplicate-review-service/internal/domain"

// Stats summarizes a duplicate group snapshot for the dashboard cards.
type Stats struct {
	// TotalGroups is the number of duplicate groups.
	TotalGroups int `json:"totalGroups"`
	// TotalArticles counts every article in the snapshot, main and similar.
	TotalArticles int `json:"totalArticles"`
	// HighConfidence counts groups with backend confidence of 90 or above.
	HighConfidence int `json:"highConfidence"`
	// DOIMatches counts groups with at least one exact DOI match.
	DOIMatches int `json:"doiMatches"`
}

// highConfidenceThreshold is the confidence percentage at and above which a
// group counts as high confidence.
const highConfidenceThreshold = 90

// Summarize computes snapshot statistics over the given groups.
func Summarize(list []domain.DuplicateGroup) Stats {
	var s Stats
	for i := range list {
		g := &list[i]
		s.TotalGroups++
		s.TotalArticles += 1 + len(g.SimilarArticles)
		if g.Confidence >= highConfidenceThreshold {
			s.HighConfidence++
		}
		if g.HasDOIMatch() {
			s.DOIMatches++
		}
	}
	return s
}

// EstimateRemaining computes the advisory remaining-article estimate after a
// bulk resolve: each group keeps one article, so totalArticles - totalGroups
// duplicates are removable. The backend's post-resolve statistics are
// authoritative; this value is for display while the call is pending.
func EstimateRemaining(before, totalArticles, totalGroups int) int {
	return before - (totalArticles - totalGroups)
}
