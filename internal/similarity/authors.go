package similarity

import (
	"strings"
	"unicode"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

// AuthorsSimilarity compares two author lists and returns the maximum of:
//   - Jaccard similarity of the normalized last-name sets
//   - string similarity of the comma-joined normalized name lists
//   - the backend-supplied floor
//
// Last-name matching is the primary signal: "John Smith" and "J. Smith"
// both reduce to the last name "smith" and score 1 on the Jaccard term
// even though the whole-string similarity is lower.
func AuthorsSimilarity(a, b []domain.Author, floor float64) float64 {
	namesA := normalizeAuthorNames(a)
	namesB := normalizeAuthorNames(b)
	if len(namesA) == 0 || len(namesB) == 0 {
		return withFloor(0, floor)
	}

	jaccard := lastNameJaccard(namesA, namesB)
	joined := StringSimilarity(strings.Join(namesA, ", "), strings.Join(namesB, ", "))

	computed := jaccard
	if joined > computed {
		computed = joined
	}
	return withFloor(computed, floor)
}

// lastNameJaccard computes set-overlap similarity of the last name (final
// token) of each normalized name.
func lastNameJaccard(namesA, namesB []string) float64 {
	setA := lastNameSet(namesA)
	setB := lastNameSet(namesB)

	intersection := 0
	for name := range setA {
		if _, ok := setB[name]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func lastNameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		parts := strings.Fields(name)
		if len(parts) == 0 {
			continue
		}
		set[parts[len(parts)-1]] = struct{}{}
	}
	return set
}

// NormalizeName normalizes an author name for comparison:
//   - Converts to lowercase
//   - Detects and reorders "Last, First" format to "First Last"
//   - Removes all non-letter, non-space characters (apostrophes, periods, hyphens, etc.)
//   - Collapses multiple spaces to a single space
//   - Trims leading and trailing whitespace
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToLower(name)

	// Handle "Last, First" format: split on comma, swap parts.
	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		first := strings.TrimSpace(name[idx+1:])
		if first != "" {
			name = first + " " + last
		} else {
			name = last
		}
	}

	// Remove non-letter, non-space characters.
	var sb strings.Builder
	sb.Grow(len(name))
	prevSpace := false

	for _, r := range name {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
		// All other characters (apostrophes, periods, hyphens) are dropped.
	}

	return strings.TrimRight(sb.String(), " ")
}

// normalizeAuthorNames applies NormalizeName to each author and drops
// entries that normalize to the empty string.
func normalizeAuthorNames(authors []domain.Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := NormalizeName(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}
