// Package groups provides filtering, sorting and summary statistics over
// duplicate group snapshots. All operations are pure: they never mutate the
// input slice and yield the same result regardless of the order filters are
// conceptually applied in, since every predicate must hold (logical AND).
package groups

import (
	"strings"
	"time"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

// StatusFilter selects groups by the main article's duplicate status.
type StatusFilter string

// Status filter values.
const (
	StatusAll        StatusFilter = "all"
	StatusResolved   StatusFilter = "resolved"
	StatusUnresolved StatusFilter = "unresolved"
)

// DateRange selects groups by main-article publication recency.
type DateRange string

// Date range buckets, measured in whole years from the current year.
const (
	DateRangeAll    DateRange = "all"
	DateRangeRecent DateRange = "recent" // within 2 years
	DateRangeLast5  DateRange = "last5"
	DateRangeLast10 DateRange = "last10"
	DateRangeOld    DateRange = "old" // more than 10 years
)

// AuthorCount selects groups by main-article author list size.
type AuthorCount string

// Author count buckets.
const (
	AuthorCountAll    AuthorCount = "all"
	AuthorCountSingle AuthorCount = "single"
	AuthorCountFew    AuthorCount = "few" // 2 to 5
	AuthorCountMany   AuthorCount = "many" // 6 or more
)

// AbstractFilter selects groups by abstract presence.
type AbstractFilter string

// Abstract filter values. An abstract longer than minAbstractLength
// characters counts as present.
const (
	AbstractAll AbstractFilter = "all"
	AbstractYes AbstractFilter = "yes"
	AbstractNo  AbstractFilter = "no"
)

// minAbstractLength is the minimum abstract length that counts as "has
// abstract" for filtering.
const minAbstractLength = 50

// Filter holds the display filter criteria. Zero values mean "no
// constraint" for every field.
type Filter struct {
	// Search matches case-insensitively against title, author names and
	// journal of the main article and all similar articles.
	Search string
	// Status filters by main-article duplicate status.
	Status StatusFilter
	// MinConfidence excludes groups whose backend confidence is below the
	// threshold. 0 disables the check.
	MinConfidence int
	// MinSimilarity keeps groups where any similar article has a title
	// score at or above the threshold or an exact DOI match. 0 disables.
	MinSimilarity float64
	// DateRange filters by main-article publication recency. Groups whose
	// main article has no date are not excluded by this filter.
	DateRange DateRange
	// AuthorCount filters by main-article author list size.
	AuthorCount AuthorCount
	// HasAbstract filters by main-article abstract presence.
	HasAbstract AbstractFilter
}

// Apply returns the groups matching every criterion in f. Groups without a
// main article are always excluded. The now parameter anchors the date
// range buckets.
func Apply(list []domain.DuplicateGroup, f Filter, now time.Time) []domain.DuplicateGroup {
	out := make([]domain.DuplicateGroup, 0, len(list))
	for _, g := range list {
		if matches(&g, f, now) {
			out = append(out, g)
		}
	}
	return out
}

func matches(g *domain.DuplicateGroup, f Filter, now time.Time) bool {
	if g.MainArticle.ID == "" {
		return false
	}
	if f.Search != "" && !matchesSearch(g, strings.ToLower(f.Search)) {
		return false
	}
	if !matchesStatus(g, f.Status) {
		return false
	}
	if f.MinConfidence > 0 && g.Confidence < f.MinConfidence {
		return false
	}
	if f.MinSimilarity > 0 && !matchesSimilarity(g, f.MinSimilarity) {
		return false
	}
	if !matchesDateRange(g, f.DateRange, now) {
		return false
	}
	if !matchesAuthorCount(g, f.AuthorCount) {
		return false
	}
	if !matchesAbstract(g, f.HasAbstract) {
		return false
	}
	return true
}

func matchesSearch(g *domain.DuplicateGroup, term string) bool {
	if articleMatchesSearch(&g.MainArticle, term) {
		return true
	}
	for i := range g.SimilarArticles {
		if articleMatchesSearch(&g.SimilarArticles[i].Article, term) {
			return true
		}
	}
	return false
}

func articleMatchesSearch(a *domain.Article, term string) bool {
	if strings.Contains(strings.ToLower(a.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Journal), term) {
		return true
	}
	for _, author := range a.Authors {
		if strings.Contains(strings.ToLower(author.Name), term) {
			return true
		}
	}
	return false
}

func matchesStatus(g *domain.DuplicateGroup, status StatusFilter) bool {
	switch status {
	case StatusResolved:
		return g.MainArticle.DuplicateStatus == domain.DuplicateStatusResolved
	case StatusUnresolved:
		return g.MainArticle.DuplicateStatus == domain.DuplicateStatusUnset
	default:
		return true
	}
}

func matchesSimilarity(g *domain.DuplicateGroup, threshold float64) bool {
	for _, sa := range g.SimilarArticles {
		if sa.Scores.Title >= threshold || sa.Scores.DOI == 1 {
			return true
		}
	}
	return false
}

func matchesDateRange(g *domain.DuplicateGroup, dr DateRange, now time.Time) bool {
	if dr == "" || dr == DateRangeAll || g.MainArticle.Date == nil {
		return true
	}
	age := now.Year() - g.MainArticle.Date.Year()
	switch dr {
	case DateRangeRecent:
		return age <= 2
	case DateRangeLast5:
		return age <= 5
	case DateRangeLast10:
		return age <= 10
	case DateRangeOld:
		return age > 10
	default:
		return true
	}
}

func matchesAuthorCount(g *domain.DuplicateGroup, ac AuthorCount) bool {
	n := len(g.MainArticle.Authors)
	switch ac {
	case AuthorCountSingle:
		return n == 1
	case AuthorCountFew:
		return n >= 2 && n <= 5
	case AuthorCountMany:
		return n > 5
	default:
		return true
	}
}

func matchesAbstract(g *domain.DuplicateGroup, af AbstractFilter) bool {
	has := len(g.MainArticle.Abstract) > minAbstractLength
	switch af {
	case AbstractYes:
		return has
	case AbstractNo:
		return !has
	default:
		return true
	}
}
