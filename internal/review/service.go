// Package review orchestrates duplicate review sessions: per-project group
// snapshots, detection and resolution calls against the authoritative
// backend, and the persisted statistics cache.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
	"github.com/kiorlabs/duplicate-review-service/internal/groups"
	"github.com/kiorlabs/duplicate-review-service/internal/observability"
	"github.com/kiorlabs/duplicate-review-service/internal/statscache"
)

// Backend is the subset of the project backend client used by the service.
type Backend interface {
	FetchGroups(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error)
	Detect(ctx context.Context, projectID string) ([]domain.DuplicateGroup, domain.DetectionSummary, error)
	Resolve(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error
	ResolveAll(ctx context.Context, projectID string) (domain.ResolveAllResult, error)
	ResolutionSummary(ctx context.Context, projectID string) (json.RawMessage, error)
}

// RefreshListener is notified after a successful bulk resolve so dependent
// views (the screening page) can reload their article lists.
type RefreshListener func(projectID string)

// Service coordinates duplicate review across projects. It is safe for
// concurrent use by HTTP handlers.
type Service struct {
	backend Backend
	cache   statscache.Store
	metrics *observability.Metrics // nil = metrics recording disabled
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	listenerMu sync.RWMutex
	listeners  []RefreshListener
}

// session holds the per-project review state. The groups slice is an
// immutable snapshot: it is replaced wholesale after every successful detect
// or resolve, never mutated in place.
type session struct {
	mu           sync.RWMutex
	groups       []domain.DuplicateGroup
	fetchedAt    time.Time
	hasSnapshot  bool
	detecting    bool
	resolvingAll bool
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithMetrics attaches Prometheus metrics to the service.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStatsCache replaces the default in-memory statistics store.
func WithStatsCache(store statscache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a review service backed by the given backend client.
func NewService(backend Backend, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		cache:    statscache.NewMemory(),
		logger:   logger.With().Str("component", "review-service").Logger(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRefreshListener adds a listener invoked after successful bulk
// resolves. Listeners must be registered before the service starts serving.
func (s *Service) RegisterRefreshListener(fn RefreshListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// session returns the state for a project, creating it on first use.
func (s *Service) session(projectID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[projectID]
	if !ok {
		sess = &session{}
		s.sessions[projectID] = sess
	}
	return sess
}

// Snapshot returns the current duplicate groups for a project, fetching from
// the backend when no snapshot is held yet. The returned slice is the shared
// immutable snapshot and must not be mutated by callers.
func (s *Service) Snapshot(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error) {
	sess := s.session(projectID)

	sess.mu.RLock()
	if sess.hasSnapshot {
		snap := sess.groups
		sess.mu.RUnlock()
		return snap, nil
	}
	sess.mu.RUnlock()

	return s.refetch(ctx, projectID, sess)
}

// refetch pulls a fresh snapshot from the backend and installs it.
func (s *Service) refetch(ctx context.Context, projectID string, sess *session) ([]domain.DuplicateGroup, error) {
	fetched, err := s.backend.FetchGroups(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching duplicate groups: %w", err)
	}

	sess.mu.Lock()
	sess.groups = fetched
	sess.hasSnapshot = true
	sess.fetchedAt = s.now()
	sess.mu.Unlock()

	s.putStats(ctx, projectID, fetched)
	return fetched, nil
}

// Detect runs duplicate detection for a project. At most one detection can
// be in flight per project; concurrent invocations are rejected.
func (s *Service) Detect(ctx context.Context, projectID string) (domain.DetectionSummary, error) {
	sess := s.session(projectID)

	sess.mu.Lock()
	if sess.detecting {
		sess.mu.Unlock()
		return domain.DetectionSummary{}, domain.NewOperationInFlightError(projectID, "detection")
	}
	sess.detecting = true
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.detecting = false
		sess.mu.Unlock()
	}()

	if s.metrics != nil {
		s.metrics.RecordDetectionStarted()
	}
	logger := observability.WithOperationContext(s.logger, "detect", projectID)

	start := s.now()
	detected, summary, err := s.backend.Detect(ctx, projectID)
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error().Err(err).Msg("duplicate detection failed")
		if s.metrics != nil {
			s.metrics.RecordDetectionFailed(duration)
		}
		return domain.DetectionSummary{}, fmt.Errorf("running duplicate detection: %w", err)
	}

	sess.mu.Lock()
	sess.groups = detected
	sess.hasSnapshot = true
	sess.fetchedAt = s.now()
	sess.mu.Unlock()

	s.putStats(ctx, projectID, detected)

	logger.Info().
		Int("groups", summary.TotalGroups).
		Int("articles", summary.TotalArticles).
		Msg("duplicate detection completed")

	if s.metrics != nil {
		s.metrics.RecordDetectionCompleted(len(detected), duration)
	}
	return summary, nil
}

// ResolvePair resolves a single duplicate pair and refetches the snapshot so
// the served groups reflect the backend's post-resolve state.
func (s *Service) ResolvePair(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error {
	if len(articleIDs) == 0 {
		return domain.NewValidationError("articleIds", "must not be empty")
	}
	for _, id := range articleIDs {
		if id == "" {
			return domain.NewValidationError("articleIds", "must not contain empty IDs")
		}
	}
	if !domain.IsValidResolution(resolution) {
		return domain.NewValidationError("resolution", fmt.Sprintf("unsupported action %q", resolution))
	}

	sess := s.session(projectID)

	if err := s.backend.Resolve(ctx, projectID, articleIDs, resolution); err != nil {
		if s.metrics != nil {
			s.metrics.RecordResolutionFailed()
		}
		return fmt.Errorf("resolving duplicate pair: %w", err)
	}

	s.logger.Info().
		Str("project_id", projectID).
		Str("resolution", string(resolution)).
		Int("articles", len(articleIDs)).
		Msg("duplicate pair resolved")

	if s.metrics != nil {
		s.metrics.RecordResolution(string(resolution))
	}

	if _, err := s.refetch(ctx, projectID, sess); err != nil {
		// The resolution itself succeeded. Drop the stale snapshot so the
		// next read refetches instead of serving resolved groups.
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("snapshot refetch after resolve failed")
		sess.mu.Lock()
		sess.groups = nil
		sess.hasSnapshot = false
		sess.mu.Unlock()
	}
	return nil
}

// ResolveAll asks the backend to auto-resolve every detected group. The
// local remaining-article estimate is advisory, logged for reconciliation
// against the backend's authoritative statistics. At most one bulk resolve
// can be in flight per project.
func (s *Service) ResolveAll(ctx context.Context, projectID string) (domain.ResolveAllResult, error) {
	sess := s.session(projectID)

	sess.mu.Lock()
	if sess.resolvingAll {
		sess.mu.Unlock()
		return domain.ResolveAllResult{}, domain.NewOperationInFlightError(projectID, "bulk resolve")
	}
	sess.resolvingAll = true
	snapStats := groups.Summarize(sess.groups)
	hadSnapshot := sess.hasSnapshot
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.resolvingAll = false
		sess.mu.Unlock()
	}()

	logger := observability.WithOperationContext(s.logger, "resolve_all", projectID)

	if hadSnapshot {
		// Each group keeps one article, so the snapshot predicts this many
		// survivors. Advisory only; the backend statistics win.
		remaining := groups.EstimateRemaining(snapStats.TotalArticles, snapStats.TotalArticles, snapStats.TotalGroups)
		logger.Debug().
			Int("estimated_remaining", remaining).
			Int("estimated_removals", snapStats.TotalArticles-remaining).
			Int("groups", snapStats.TotalGroups).
			Msg("bulk resolve estimate")
	}

	result, err := s.backend.ResolveAll(ctx, projectID)
	if err != nil {
		logger.Error().Err(err).Msg("bulk resolve failed")
		return domain.ResolveAllResult{}, fmt.Errorf("resolving all duplicates: %w", err)
	}

	if hadSnapshot && result.DuplicateGroupsFound != snapStats.TotalGroups {
		logger.Warn().
			Int("local_groups", snapStats.TotalGroups).
			Int("backend_groups", result.DuplicateGroupsFound).
			Msg("bulk resolve group count differs from local snapshot")
	}

	// The backend removed articles, so every held view of this project is
	// stale. Clear the snapshot and cached statistics rather than patching
	// them locally.
	sess.mu.Lock()
	sess.groups = nil
	sess.hasSnapshot = false
	sess.mu.Unlock()

	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}

	logger.Info().
		Int("groups_found", result.DuplicateGroupsFound).
		Int("duplicates_removed", result.Statistics.DuplicatesRemoved).
		Int("final_articles", result.Statistics.FinalArticles).
		Str("reduction", result.Statistics.Reduction).
		Msg("bulk resolve completed")

	if s.metrics != nil {
		s.metrics.RecordResolveAll(result.Statistics.DuplicatesRemoved)
	}

	s.notifyRefresh(projectID)
	return result, nil
}

// Stats returns the duplicate statistics for a project, preferring the
// persisted cache and falling back to a summary of the current snapshot.
// The cache is display state only; detection and resolution overwrite it.
func (s *Service) Stats(ctx context.Context, projectID string) (groups.Stats, error) {
	entry, ok, err := s.cache.Get(ctx, projectID)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("stats cache read failed")
	}
	if ok {
		if s.metrics != nil {
			s.metrics.RecordStatsCacheHit()
		}
		return entry.Stats, nil
	}
	if s.metrics != nil {
		s.metrics.RecordStatsCacheMiss()
	}

	snap, err := s.Snapshot(ctx, projectID)
	if err != nil {
		return groups.Stats{}, err
	}
	return groups.Summarize(snap), nil
}

// ResolutionSummary proxies the backend's resolution summary payload.
func (s *Service) ResolutionSummary(ctx context.Context, projectID string) (json.RawMessage, error) {
	summary, err := s.backend.ResolutionSummary(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching resolution summary: %w", err)
	}
	return summary, nil
}

// putStats records snapshot statistics in the cache. Failures are logged and
// swallowed since the cache is never a source of truth.
func (s *Service) putStats(ctx context.Context, projectID string, snap []domain.DuplicateGroup) {
	entry := statscache.Entry{
		Stats:     groups.Summarize(snap),
		UpdatedAt: s.now(),
	}
	if err := s.cache.Put(ctx, projectID, entry); err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("stats cache write failed")
	}
}

// notifyRefresh invokes every registered refresh listener.
func (s *Service) notifyRefresh(projectID string) {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	for _, fn := range s.listeners {
		fn(projectID)
	}
}
