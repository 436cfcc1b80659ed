package similarity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

// journalAbbreviations maps common journal-name abbreviations to their
// expanded form. Tokens are matched after lowercasing.
var journalAbbreviations = map[string]string{
	"j.":     "journal",
	"proc.":  "proceedings",
	"trans.": "transactions",
	"int.":   "international",
	"conf.":  "conference",
	"symp.":  "symposium",
}

// journalStopwords are filler words stripped from journal names before
// comparison.
var journalStopwords = map[string]struct{}{
	"the":  {},
	"of":   {},
	"and":  {},
	"in":   {},
	"on":   {},
	"for":  {},
	"with": {},
	"&":    {},
}

// TitleSimilarity compares titles after lowercasing and trimming, with the
// backend score as floor.
func TitleSimilarity(a, b string, floor float64) float64 {
	computed := StringSimilarity(normalizeText(a), normalizeText(b))
	return withFloor(computed, floor)
}

// JournalSimilarity compares journal names after expanding common
// abbreviations and stripping stopwords, with the backend score as floor.
func JournalSimilarity(a, b string, floor float64) float64 {
	ja := normalizeText(a)
	jb := normalizeText(b)
	if ja == "" || jb == "" {
		return withFloor(0, floor)
	}
	if ja == jb {
		return withFloor(1, floor)
	}

	computed := StringSimilarity(normalizeJournal(ja), normalizeJournal(jb))
	return withFloor(computed, floor)
}

// DateSimilarity scores publication dates in tiers: exact timestamp match 1,
// same year and month 0.8, same year 0.6, one year apart 0.4, two years
// apart 0.2, otherwise 0. A missing date on either side scores 0. The
// backend score is the floor.
func DateSimilarity(a, b *time.Time, floor float64) float64 {
	if a == nil || b == nil {
		return withFloor(0, floor)
	}

	var computed float64
	switch {
	case a.Equal(*b):
		computed = 1
	case a.Year() == b.Year() && a.Month() == b.Month():
		computed = 0.8
	case a.Year() == b.Year():
		computed = 0.6
	default:
		yearDiff := a.Year() - b.Year()
		if yearDiff < 0 {
			yearDiff = -yearDiff
		}
		switch yearDiff {
		case 1:
			computed = 0.4
		case 2:
			computed = 0.2
		}
	}

	return withFloor(computed, floor)
}

// AbstractSimilarity compares abstracts using the maximum of direct string
// similarity and word-overlap Jaccard over words longer than three
// characters, with the backend score as floor. A missing abstract on either
// side scores 0.
func AbstractSimilarity(a, b string, floor float64) float64 {
	aa := normalizeText(a)
	ab := normalizeText(b)
	if aa == "" || ab == "" {
		return withFloor(0, floor)
	}
	if aa == ab {
		return withFloor(1, floor)
	}

	computed := StringSimilarity(aa, ab)
	if overlap := wordOverlap(aa, ab); overlap > computed {
		computed = overlap
	}
	return withFloor(computed, floor)
}

// DOISimilarity returns 1 only when both DOIs are non-empty and exactly
// equal, otherwise 0. No fuzzy matching and no floor blending: the DOI
// score stays binary regardless of any backend-supplied fraction.
func DOISimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0
}

// Compare recomputes all per-field similarities for one article pair, using
// the backend-supplied scores as per-field floors. Overall is carried over
// unchanged: the overall confidence is server-authoritative and never
// reinvented here.
func Compare(main, other domain.Article, backend domain.SimilarityScores) domain.SimilarityScores {
	return domain.SimilarityScores{
		Title:    TitleSimilarity(main.Title, other.Title, backend.Title),
		Authors:  AuthorsSimilarity(main.Authors, other.Authors, backend.Authors),
		Journal:  JournalSimilarity(main.Journal, other.Journal, backend.Journal),
		Date:     DateSimilarity(main.Date, other.Date, backend.Date),
		Abstract: AbstractSimilarity(main.Abstract, other.Abstract, backend.Abstract),
		DOI:      DOISimilarity(main.DOI, other.DOI),
		Overall:  backend.Overall,
	}
}

// normalizeText lowercases and trims a field value.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeJournal expands abbreviations and strips stopwords from an
// already lowercased journal name.
func normalizeJournal(s string) string {
	tokens := strings.Fields(s)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if full, ok := journalAbbreviations[tok]; ok {
			tok = full
		}
		if _, ok := journalStopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// wordOverlap computes Jaccard similarity over the sets of words longer
// than three characters in each input.
func wordOverlap(a, b string) float64 {
	wordsA := significantWords(a)
	wordsB := significantWords(b)

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) > 3 {
			words[w] = struct{}{}
		}
	}
	return words
}
