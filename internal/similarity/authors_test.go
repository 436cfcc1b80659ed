package similarity

import (
	"testing"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "John Smith",
			expected: "john smith",
		},
		{
			name:     "extra whitespace",
			input:    "  John   Smith  ",
			expected: "john smith",
		},
		{
			name:     "last comma first format",
			input:    "SMITH, John",
			expected: "john smith",
		},
		{
			name:     "apostrophe removed",
			input:    "O'Brien",
			expected: "obrien",
		},
		{
			name:     "periods removed",
			input:    "J. K. Rowling",
			expected: "j k rowling",
		},
		{
			name:     "hyphens removed",
			input:    "Mary-Jane Watson",
			expected: "maryjane watson",
		},
		{
			name:     "comma with empty first part",
			input:    "Smith,",
			expected: "smith",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func authors(names ...string) []domain.Author {
	out := make([]domain.Author, len(names))
	for i, n := range names {
		out[i] = domain.Author{Name: n}
	}
	return out
}

func TestAuthorsSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        []domain.Author
		b        []domain.Author
		floor    float64
		expected float64
	}{
		{
			name:     "identical single author",
			a:        authors("John Smith"),
			b:        authors("John Smith"),
			expected: 1,
		},
		{
			name:     "initial vs full first name shares last name",
			a:        authors("John Smith"),
			b:        authors("J. Smith"),
			expected: 1,
		},
		{
			name:     "last comma first vs first last",
			a:        authors("Smith, John"),
			b:        authors("John Smith"),
			expected: 1,
		},
		{
			name:     "same authors in different name formats",
			a:        authors("John Smith", "Alice Brown"),
			b:        authors("Brown, Alice", "Smith, J."),
			expected: 1, // last-name jaccard is 1 despite reordering
		},
		{
			name:     "empty first list",
			a:        nil,
			b:        authors("John Smith"),
			expected: 0,
		},
		{
			name:     "both empty",
			a:        nil,
			b:        nil,
			expected: 0,
		},
		{
			name:     "empty list with floor",
			a:        nil,
			b:        authors("John Smith"),
			floor:    0.6,
			expected: 0.6,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AuthorsSimilarity(tt.a, tt.b, tt.floor)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("AuthorsSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAuthorsSimilarityPartialOverlap(t *testing.T) {
	t.Parallel()

	a := authors("John Smith", "Alice Brown")
	b := authors("John Smith", "Carol Davis")

	got := AuthorsSimilarity(a, b, 0)
	// Last-name jaccard is 1/3; the joined-string term may raise the score
	// but a partial overlap must never reach a perfect match.
	if got < 1.0/3.0 || got >= 1 {
		t.Errorf("AuthorsSimilarity() = %v, want in [1/3, 1)", got)
	}
}

func TestAuthorsSimilarityFloor(t *testing.T) {
	t.Parallel()

	a := authors("Alice Brown")
	b := authors("Carol Davis")
	floors := []float64{0, 0.25, 0.5, 0.75, 1}

	for _, floor := range floors {
		if got := AuthorsSimilarity(a, b, floor); got < floor {
			t.Errorf("AuthorsSimilarity with floor %v = %v, below floor", floor, got)
		}
	}
}
