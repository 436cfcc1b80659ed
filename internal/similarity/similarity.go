// Package similarity implements the bibliographic similarity engine:
// normalized edit-distance string similarity, per-field comparators for
// title, authors, journal, date, abstract and DOI, and confidence tiers.
//
// All comparators are total: they accept any input, including missing
// fields, and degrade to a low score instead of failing.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// StringSimilarity returns a similarity score in [0,1] between two strings
// based on normalized Levenshtein edit distance:
//
//	1 - editDistance(a, b) / max(len(a), len(b))
//
// Callers are responsible for case folding and trimming; this function
// compares its inputs verbatim.
//
// Two empty strings score 1 (a trivial match). This inflates per-field
// similarity for records that are both missing the same field, but the
// behavior is kept for determinism with existing scoring.
func StringSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}

	return 1 - float64(dist)/float64(maxLen)
}

// withFloor applies the never-decrease rule: a recomputed score may raise
// but never lower the backend-supplied value for the same field. Keeping
// the rule in one place guarantees every comparator honors it.
func withFloor(computed, backend float64) float64 {
	if backend > computed {
		return backend
	}
	return computed
}
