package groups

import (
	"sort"
	"time"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

// SortOrder selects the display ordering for duplicate groups.
type SortOrder string

// Supported sort orders, all descending.
const (
	SortByConfidence SortOrder = "confidence"
	SortByDate       SortOrder = "date"
	SortBySimilarity SortOrder = "similarity"
)

// IsValidSortOrder reports whether o names a supported sort order.
func IsValidSortOrder(o SortOrder) bool {
	switch o {
	case SortByConfidence, SortByDate, SortBySimilarity:
		return true
	}
	return false
}

// Sort returns a copy of list ordered by the given criterion, descending.
// The sort is stable so equal groups keep their backend order. An unknown
// order leaves the backend order untouched.
func Sort(list []domain.DuplicateGroup, order SortOrder) []domain.DuplicateGroup {
	out := make([]domain.DuplicateGroup, len(list))
	copy(out, list)

	switch order {
	case SortByConfidence:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Confidence > out[j].Confidence
		})
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			return mainDate(&out[i]).After(mainDate(&out[j]))
		})
	case SortBySimilarity:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].MaxOverallScore() > out[j].MaxOverallScore()
		})
	}

	return out
}

// mainDate returns the main article's date, or the zero time when missing
// so undated groups sort last under SortByDate.
func mainDate(g *domain.DuplicateGroup) time.Time {
	if g.MainArticle.Date == nil {
		return time.Time{}
	}
	return *g.MainArticle.Date
}
