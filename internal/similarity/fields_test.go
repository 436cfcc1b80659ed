package similarity

import (
	"testing"
	"time"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		floor    float64
		expected float64
	}{
		{
			name:     "case and trailing space normalize to exact match",
			a:        "Deep Learning for X",
			b:        "Deep learning for X ",
			expected: 1,
		},
		{
			name:     "identical titles",
			a:        "A Survey of Things",
			b:        "A Survey of Things",
			expected: 1,
		},
		{
			name:     "one title missing",
			a:        "",
			b:        "A Survey of Things",
			expected: 0,
		},
		{
			name:     "one missing with backend floor",
			a:        "",
			b:        "A Survey of Things",
			floor:    0.3,
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TitleSimilarity(tt.a, tt.b, tt.floor); got != tt.expected {
				t.Errorf("TitleSimilarity(%q, %q, %v) = %v, want %v", tt.a, tt.b, tt.floor, got, tt.expected)
			}
		})
	}
}

func TestJournalSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		floor    float64
		expected float64
	}{
		{
			name:     "abbreviations expand to same name",
			a:        "J. Machine Learning",
			b:        "Journal of Machine Learning",
			expected: 1,
		},
		{
			name:     "proceedings abbreviation with stopwords",
			a:        "Proc. of the Int. Conf. on Robotics",
			b:        "Proceedings of the International Conference on Robotics",
			expected: 1,
		},
		{
			name:     "exact match short-circuits",
			a:        "Nature",
			b:        "nature",
			expected: 1,
		},
		{
			name:     "missing journal",
			a:        "",
			b:        "Nature",
			expected: 0,
		},
		{
			name:     "missing journal with floor",
			a:        "",
			b:        "Nature",
			floor:    0.4,
			expected: 0.4,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := JournalSimilarity(tt.a, tt.b, tt.floor); got != tt.expected {
				t.Errorf("JournalSimilarity(%q, %q, %v) = %v, want %v", tt.a, tt.b, tt.floor, got, tt.expected)
			}
		})
	}
}

func TestDateSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        *time.Time
		b        *time.Time
		floor    float64
		expected float64
	}{
		{
			name:     "exact same date",
			a:        date("2020-05-10"),
			b:        date("2020-05-10"),
			expected: 1,
		},
		{
			name:     "same year and month",
			a:        date("2020-05-10"),
			b:        date("2020-05-20"),
			expected: 0.8,
		},
		{
			name:     "same year different month",
			a:        date("2020-01-10"),
			b:        date("2020-11-20"),
			expected: 0.6,
		},
		{
			name:     "one year apart different month",
			a:        date("2020-01-01"),
			b:        date("2021-06-01"),
			expected: 0.4,
		},
		{
			name:     "two years apart",
			a:        date("2019-03-01"),
			b:        date("2021-06-01"),
			expected: 0.2,
		},
		{
			name:     "three years apart",
			a:        date("2018-03-01"),
			b:        date("2021-06-01"),
			expected: 0,
		},
		{
			name:     "missing date",
			a:        nil,
			b:        date("2021-06-01"),
			expected: 0,
		},
		{
			name:     "missing date with floor",
			a:        nil,
			b:        date("2021-06-01"),
			floor:    0.5,
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DateSimilarity(tt.a, tt.b, tt.floor); got != tt.expected {
				t.Errorf("DateSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDateSimilarityMonotonicInYearGap(t *testing.T) {
	t.Parallel()

	base := date("2020-06-01")
	prev := 2.0
	for gap := 0; gap <= 5; gap++ {
		other := base.AddDate(gap, 0, 0)
		got := DateSimilarity(base, &other, 0)
		if got > prev {
			t.Errorf("score for %d-year gap (%v) exceeds score for smaller gap (%v)", gap, got, prev)
		}
		prev = got
	}
}

func TestAbstractSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		floor    float64
		expected float64
	}{
		{
			name:     "identical abstracts",
			a:        "We study duplicate detection in bibliographic databases.",
			b:        "We study duplicate detection in bibliographic databases.",
			expected: 1,
		},
		{
			name:     "same significant words in different order",
			a:        "detection duplicate bibliographic",
			b:        "bibliographic duplicate detection",
			expected: 1, // word-overlap jaccard dominates edit distance
		},
		{
			name:     "missing abstract",
			a:        "",
			b:        "We study duplicate detection.",
			expected: 0,
		},
		{
			name:     "missing abstract with floor",
			a:        "",
			b:        "We study duplicate detection.",
			floor:    0.2,
			expected: 0.2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AbstractSimilarity(tt.a, tt.b, tt.floor); got != tt.expected {
				t.Errorf("AbstractSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDOISimilarityIsBinary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "exact match",
			a:        "10.1/abc",
			b:        "10.1/abc",
			expected: 1,
		},
		{
			name:     "case difference is not a match",
			a:        "10.1/ABC",
			b:        "10.1/abc",
			expected: 0,
		},
		{
			name:     "near match",
			a:        "10.1/abc",
			b:        "10.1/abd",
			expected: 0,
		},
		{
			name:     "both missing",
			a:        "",
			b:        "",
			expected: 0,
		},
		{
			name:     "one missing",
			a:        "10.1/abc",
			b:        "",
			expected: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DOISimilarity(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("DOISimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
			if got != 0 && got != 1 {
				t.Errorf("DOISimilarity(%q, %q) = %v, must be exactly 0 or 1", tt.a, tt.b, got)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	main := domain.Article{
		ID:       "a1",
		Title:    "Deep Learning for X",
		Authors:  []domain.Author{{Name: "John Smith"}},
		Journal:  "J. Machine Learning",
		Date:     date("2020-01-01"),
		Abstract: "We study deep learning methods for task X in detail.",
		DOI:      "10.1/abc",
	}
	other := domain.Article{
		ID:       "a2",
		Title:    "Deep learning for X ",
		Authors:  []domain.Author{{Name: "J. Smith"}},
		Journal:  "Journal of Machine Learning",
		Date:     date("2021-06-01"),
		Abstract: "We study deep learning methods for task X in detail.",
		DOI:      "10.1/abc",
	}
	backend := domain.SimilarityScores{
		Title:   0.5,
		Authors: 0.5,
		Journal: 0.5,
		Date:    0.1,
		Overall: 0.97,
	}

	got := Compare(main, other, backend)

	if got.Title != 1 {
		t.Errorf("Title = %v, want 1", got.Title)
	}
	if got.Authors != 1 {
		t.Errorf("Authors = %v, want 1", got.Authors)
	}
	if got.Journal != 1 {
		t.Errorf("Journal = %v, want 1", got.Journal)
	}
	if got.Date != 0.4 {
		t.Errorf("Date = %v, want 0.4", got.Date)
	}
	if got.Abstract != 1 {
		t.Errorf("Abstract = %v, want 1", got.Abstract)
	}
	if got.DOI != 1 {
		t.Errorf("DOI = %v, want 1", got.DOI)
	}
	if got.Overall != backend.Overall {
		t.Errorf("Overall = %v, want backend value %v", got.Overall, backend.Overall)
	}
}

func TestCompareFloorInvariant(t *testing.T) {
	t.Parallel()

	main := domain.Article{ID: "a1", Title: "Alpha", Journal: "Beta"}
	other := domain.Article{ID: "a2", Title: "Gamma", Journal: "Delta", Abstract: "totally unrelated words here"}
	backend := domain.SimilarityScores{
		Title:    0.7,
		Authors:  0.6,
		Journal:  0.5,
		Date:     0.4,
		Abstract: 0.3,
	}

	got := Compare(main, other, backend)

	checks := []struct {
		field   string
		got     float64
		backend float64
	}{
		{"title", got.Title, backend.Title},
		{"authors", got.Authors, backend.Authors},
		{"journal", got.Journal, backend.Journal},
		{"date", got.Date, backend.Date},
		{"abstract", got.Abstract, backend.Abstract},
	}
	for _, c := range checks {
		if c.got < c.backend {
			t.Errorf("%s score %v dropped below backend floor %v", c.field, c.got, c.backend)
		}
	}
}
