package review

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
	"github.com/kiorlabs/duplicate-review-service/internal/statscache"
)

// mockBackend implements Backend with overridable functions.
type mockBackend struct {
	fetchGroupsFn       func(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error)
	detectFn            func(ctx context.Context, projectID string) ([]domain.DuplicateGroup, domain.DetectionSummary, error)
	resolveFn           func(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error
	resolveAllFn        func(ctx context.Context, projectID string) (domain.ResolveAllResult, error)
	resolutionSummaryFn func(ctx context.Context, projectID string) (json.RawMessage, error)
}

func (m *mockBackend) FetchGroups(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error) {
	if m.fetchGroupsFn != nil {
		return m.fetchGroupsFn(ctx, projectID)
	}
	return nil, nil
}

func (m *mockBackend) Detect(ctx context.Context, projectID string) ([]domain.DuplicateGroup, domain.DetectionSummary, error) {
	if m.detectFn != nil {
		return m.detectFn(ctx, projectID)
	}
	return nil, domain.DetectionSummary{}, nil
}

func (m *mockBackend) Resolve(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, projectID, articleIDs, resolution)
	}
	return nil
}

func (m *mockBackend) ResolveAll(ctx context.Context, projectID string) (domain.ResolveAllResult, error) {
	if m.resolveAllFn != nil {
		return m.resolveAllFn(ctx, projectID)
	}
	return domain.ResolveAllResult{}, nil
}

func (m *mockBackend) ResolutionSummary(ctx context.Context, projectID string) (json.RawMessage, error) {
	if m.resolutionSummaryFn != nil {
		return m.resolutionSummaryFn(ctx, projectID)
	}
	return nil, nil
}

func testGroups() []domain.DuplicateGroup {
	return []domain.DuplicateGroup{
		{
			MainArticle:     domain.Article{ID: "a1", Title: "Deep Learning for Robotics"},
			SimilarArticles: []domain.SimilarArticle{{Article: domain.Article{ID: "a2"}, Scores: domain.SimilarityScores{DOI: 1, Overall: 0.97}}},
			Confidence:      97,
		},
		{
			MainArticle:     domain.Article{ID: "b1", Title: "Graph Neural Networks"},
			SimilarArticles: []domain.SimilarArticle{{Article: domain.Article{ID: "b2"}, Scores: domain.SimilarityScores{Overall: 0.85}}},
			Confidence:      85,
		},
	}
}

func newTestService(b Backend, opts ...Option) *Service {
	return NewService(b, zerolog.Nop(), opts...)
}

func TestSnapshotLazyFetch(t *testing.T) {
	t.Parallel()

	fetchCalls := 0
	backend := &mockBackend{
		fetchGroupsFn: func(_ context.Context, projectID string) ([]domain.DuplicateGroup, error) {
			fetchCalls++
			if projectID != "p1" {
				t.Errorf("unexpected project ID %q", projectID)
			}
			return testGroups(), nil
		},
	}
	svc := newTestService(backend)

	snap, err := svc.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("Snapshot() returned %d groups, want 2", len(snap))
	}

	// Second read serves the held snapshot without another backend call.
	if _, err := svc.Snapshot(context.Background(), "p1"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("backend fetch called %d times, want 1", fetchCalls)
	}
}

func TestSnapshotFetchError(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			return nil, domain.NewExternalAPIError("ProjectBackend", 503, "down", domain.ErrServiceUnavailable)
		},
	}
	svc := newTestService(backend)

	if _, err := svc.Snapshot(context.Background(), "p1"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("Snapshot() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestDetectReplacesSnapshot(t *testing.T) {
	t.Parallel()

	fetchCalls := 0
	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			fetchCalls++
			return nil, nil
		},
		detectFn: func(context.Context, string) ([]domain.DuplicateGroup, domain.DetectionSummary, error) {
			return testGroups(), domain.DetectionSummary{TotalGroups: 2, TotalArticles: 4}, nil
		},
	}
	svc := newTestService(backend)

	summary, err := svc.Detect(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if summary.TotalGroups != 2 || summary.TotalArticles != 4 {
		t.Errorf("Detect() summary = %+v, want {2 4}", summary)
	}

	snap, err := svc.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap) != 2 {
		t.Errorf("Snapshot() returned %d groups, want 2", len(snap))
	}
	if fetchCalls != 0 {
		t.Errorf("detect result should serve reads, but fetch was called %d times", fetchCalls)
	}
}

func TestDetectSingleFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	backend := &mockBackend{
		// The final Detect below re-enters this function, so the started
		// channel must only close once.
		detectFn: func(context.Context, string) ([]domain.DuplicateGroup, domain.DetectionSummary, error) {
			startOnce.Do(func() { close(started) })
			<-release
			return nil, domain.DetectionSummary{}, nil
		},
	}
	svc := newTestService(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Detect(context.Background(), "p1"); err != nil {
			t.Errorf("Detect() error = %v", err)
		}
	}()

	<-started
	_, err := svc.Detect(context.Background(), "p1")
	if !errors.Is(err, domain.ErrOperationInFlight) {
		t.Errorf("concurrent Detect() error = %v, want ErrOperationInFlight", err)
	}
	var inFlight *domain.OperationInFlightError
	if errors.As(err, &inFlight) && inFlight.ProjectID != "p1" {
		t.Errorf("OperationInFlightError.ProjectID = %q, want p1", inFlight.ProjectID)
	}

	close(release)
	wg.Wait()

	// The guard must lift once the first run completes.
	if _, err := svc.Detect(context.Background(), "p1"); err != nil {
		t.Errorf("Detect() after completion error = %v", err)
	}
}

func TestDetectOtherProjectNotBlocked(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		detectFn: func(_ context.Context, projectID string) ([]domain.DuplicateGroup, domain.DetectionSummary, error) {
			if projectID == "slow" {
				close(started)
				<-release
			}
			return nil, domain.DetectionSummary{}, nil
		},
	}
	svc := newTestService(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Detect(context.Background(), "slow")
	}()

	<-started
	if _, err := svc.Detect(context.Background(), "fast"); err != nil {
		t.Errorf("Detect() on other project error = %v", err)
	}
	close(release)
	wg.Wait()
}

func TestResolvePairValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		articleIDs []string
		resolution domain.Resolution
	}{
		{name: "empty article list", articleIDs: nil, resolution: domain.ResolutionKeepMain},
		{name: "blank article ID", articleIDs: []string{"a1", ""}, resolution: domain.ResolutionKeepMain},
		{name: "unknown resolution", articleIDs: []string{"a1", "a2"}, resolution: "merge"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := &mockBackend{
				resolveFn: func(context.Context, string, []string, domain.Resolution) error {
					t.Error("backend must not be called on invalid input")
					return nil
				},
			}
			svc := newTestService(backend)

			err := svc.ResolvePair(context.Background(), "p1", tt.articleIDs, tt.resolution)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("ResolvePair() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestResolvePairRefetchesSnapshot(t *testing.T) {
	t.Parallel()

	var gotIDs []string
	var gotResolution domain.Resolution
	fetchCalls := 0
	backend := &mockBackend{
		resolveFn: func(_ context.Context, _ string, articleIDs []string, resolution domain.Resolution) error {
			gotIDs = articleIDs
			gotResolution = resolution
			return nil
		},
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			fetchCalls++
			return testGroups()[:1], nil
		},
	}
	svc := newTestService(backend)

	err := svc.ResolvePair(context.Background(), "p1", []string{"a1", "a2"}, domain.ResolutionKeepMain)
	if err != nil {
		t.Fatalf("ResolvePair() error = %v", err)
	}
	if len(gotIDs) != 2 || gotIDs[0] != "a1" {
		t.Errorf("backend received articleIDs %v, want [a1 a2]", gotIDs)
	}
	if gotResolution != domain.ResolutionKeepMain {
		t.Errorf("backend received resolution %q, want keep_main", gotResolution)
	}
	if fetchCalls != 1 {
		t.Errorf("snapshot refetched %d times, want 1", fetchCalls)
	}

	snap, err := svc.Snapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap) != 1 {
		t.Errorf("Snapshot() returned %d groups, want 1", len(snap))
	}
}

func TestResolvePairBackendError(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{
		resolveFn: func(context.Context, string, []string, domain.Resolution) error {
			return domain.NewExternalAPIError("ProjectBackend", 404, "group gone", domain.ErrNotFound)
		},
	}
	svc := newTestService(backend)

	err := svc.ResolvePair(context.Background(), "p1", []string{"a1"}, domain.ResolutionNotDuplicate)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ResolvePair() error = %v, want ErrNotFound", err)
	}
}

func TestResolveAllClearsStateAndNotifies(t *testing.T) {
	t.Parallel()

	fetchCalls := 0
	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			fetchCalls++
			return testGroups(), nil
		},
		resolveAllFn: func(context.Context, string) (domain.ResolveAllResult, error) {
			return domain.ResolveAllResult{
				DuplicateGroupsFound: 2,
				Statistics: domain.ResolveAllStatistics{
					DuplicatesRemoved: 2,
					FinalArticles:     98,
					Reduction:         "2.0%",
				},
			}, nil
		},
	}
	cache := statscache.NewMemory()
	svc := newTestService(backend, WithStatsCache(cache))

	var notified []string
	svc.RegisterRefreshListener(func(projectID string) {
		notified = append(notified, projectID)
	})

	// Preload a snapshot so resolve-all has local state to clear.
	if _, err := svc.Snapshot(context.Background(), "p1"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	result, err := svc.ResolveAll(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if result.Statistics.DuplicatesRemoved != 2 || result.Statistics.FinalArticles != 98 {
		t.Errorf("ResolveAll() statistics = %+v", result.Statistics)
	}

	if len(notified) != 1 || notified[0] != "p1" {
		t.Errorf("refresh listeners notified with %v, want [p1]", notified)
	}

	if _, ok, _ := cache.Get(context.Background(), "p1"); ok {
		t.Error("stats cache entry should be invalidated after resolve-all")
	}

	// The snapshot was cleared, so the next read hits the backend again.
	if _, err := svc.Snapshot(context.Background(), "p1"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if fetchCalls != 2 {
		t.Errorf("backend fetch called %d times, want 2", fetchCalls)
	}
}

func TestResolveAllSingleFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		resolveAllFn: func(context.Context, string) (domain.ResolveAllResult, error) {
			close(started)
			<-release
			return domain.ResolveAllResult{}, nil
		},
	}
	svc := newTestService(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.ResolveAll(context.Background(), "p1")
	}()

	<-started
	if _, err := svc.ResolveAll(context.Background(), "p1"); !errors.Is(err, domain.ErrOperationInFlight) {
		t.Errorf("concurrent ResolveAll() error = %v, want ErrOperationInFlight", err)
	}
	close(release)
	wg.Wait()
}

func TestResolveAllBackendErrorKeepsSnapshot(t *testing.T) {
	t.Parallel()

	fetchCalls := 0
	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			fetchCalls++
			return testGroups(), nil
		},
		resolveAllFn: func(context.Context, string) (domain.ResolveAllResult, error) {
			return domain.ResolveAllResult{}, domain.NewExternalAPIError("ProjectBackend", 500, "boom", domain.ErrServiceUnavailable)
		},
	}
	svc := newTestService(backend)

	if _, err := svc.Snapshot(context.Background(), "p1"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if _, err := svc.ResolveAll(context.Background(), "p1"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("ResolveAll() error = %v, want ErrServiceUnavailable", err)
	}

	// Nothing was resolved, so the held snapshot stays valid.
	if _, err := svc.Snapshot(context.Background(), "p1"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("backend fetch called %d times, want 1", fetchCalls)
	}
}

func TestStatsServedFromCache(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			t.Error("backend must not be called on a cache hit")
			return nil, nil
		},
	}
	cache := statscache.NewMemory()
	svc := newTestService(backend, WithStatsCache(cache))

	want := statscache.Entry{UpdatedAt: time.Now()}
	want.Stats.TotalGroups = 3
	want.Stats.TotalArticles = 9
	if err := cache.Put(context.Background(), "p1", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stats, err := svc.Stats(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalGroups != 3 || stats.TotalArticles != 9 {
		t.Errorf("Stats() = %+v, want cached {3 9}", stats)
	}
}

func TestStatsFallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{
		fetchGroupsFn: func(context.Context, string) ([]domain.DuplicateGroup, error) {
			return testGroups(), nil
		},
	}
	svc := newTestService(backend)

	stats, err := svc.Stats(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalGroups != 2 {
		t.Errorf("Stats().TotalGroups = %d, want 2", stats.TotalGroups)
	}
	if stats.TotalArticles != 4 {
		t.Errorf("Stats().TotalArticles = %d, want 4", stats.TotalArticles)
	}
	if stats.HighConfidence != 1 {
		t.Errorf("Stats().HighConfidence = %d, want 1", stats.HighConfidence)
	}
	if stats.DOIMatches != 1 {
		t.Errorf("Stats().DOIMatches = %d, want 1", stats.DOIMatches)
	}
}

func TestResolutionSummaryPassthrough(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{"resolved":12,"pending":3}`)
	backend := &mockBackend{
		resolutionSummaryFn: func(context.Context, string) (json.RawMessage, error) {
			return raw, nil
		},
	}
	svc := newTestService(backend)

	got, err := svc.ResolutionSummary(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ResolutionSummary() error = %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("ResolutionSummary() = %s, want %s", got, raw)
	}
}
