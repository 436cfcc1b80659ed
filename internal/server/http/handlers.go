package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
	"github.com/kiorlabs/duplicate-review-service/internal/groups"
	"github.com/kiorlabs/duplicate-review-service/internal/observability"
	"github.com/kiorlabs/duplicate-review-service/internal/similarity"
)

// maxRequestBodySize limits request bodies to 1 MB.
const maxRequestBodySize = 1 << 20

// validate checks resolve request bodies. Validator instances cache struct
// metadata, so a single shared instance is used.
var validate = validator.New()

// ReviewService defines the review operations used by the HTTP handlers.
type ReviewService interface {
	Snapshot(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error)
	Detect(ctx context.Context, projectID string) (domain.DetectionSummary, error)
	ResolvePair(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error
	ResolveAll(ctx context.Context, projectID string) (domain.ResolveAllResult, error)
	Stats(ctx context.Context, projectID string) (groups.Stats, error)
	ResolutionSummary(ctx context.Context, projectID string) (json.RawMessage, error)
}

// resolveDuplicatesRequest is the JSON request body for resolving one pair.
type resolveDuplicatesRequest struct {
	ArticleIDs []string `json:"articleIds" validate:"required,min=1,dive,required"`
	Resolution string   `json:"resolution" validate:"required,oneof=keep_main keep_similar not_duplicate"`
}

// listDuplicates handles GET /duplicates.
// Query parameters map to display filters and the sort order; the stats
// block summarizes the full snapshot, not just the filtered page.
func (s *Server) listDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	filter, sortOrder, err := parseListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.service.Snapshot(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "listing duplicates failed")
		writeDomainError(w, err)
		return
	}

	stats, err := s.service.Stats(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "fetching duplicate stats failed")
		writeDomainError(w, err)
		return
	}

	filtered := groups.Apply(snapshot, filter, time.Now())
	if sortOrder != "" {
		filtered = groups.Sort(filtered, sortOrder)
	}

	writeJSON(w, http.StatusOK, listDuplicatesResponse{
		Groups:   toGroupResponses(filtered),
		Total:    len(snapshot),
		Filtered: len(filtered),
		Stats:    stats,
	})
}

// detectDuplicates handles POST /duplicates/detect.
func (s *Server) detectDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	summary, err := s.service.Detect(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "duplicate detection failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{
		Summary: summary,
		Message: "duplicate detection completed",
	})
}

// resolveDuplicates handles POST /duplicates/resolve.
func (s *Server) resolveDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req resolveDuplicatesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := s.service.ResolvePair(ctx, projectID, req.ArticleIDs, domain.Resolution(req.Resolution)); err != nil {
		s.logRequestError(ctx, err, "resolving duplicate pair failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Success:    true,
		Resolution: req.Resolution,
		Message:    "duplicates resolved",
	})
}

// resolveAllDuplicates handles POST /duplicates/resolve-all.
func (s *Server) resolveAllDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	result, err := s.service.ResolveAll(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "bulk resolve failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveAllResponse{
		Success:              true,
		DuplicateGroupsFound: result.DuplicateGroupsFound,
		Statistics:           result.Statistics,
	})
}

// resolutionSummary handles GET /duplicates/resolution-summary. The payload
// shape is backend-defined and proxied through unchanged.
func (s *Server) resolutionSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	summary, err := s.service.ResolutionSummary(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "fetching resolution summary failed")
		writeDomainError(w, err)
		return
	}
	if summary == nil {
		summary = json.RawMessage("null")
	}

	writeJSON(w, http.StatusOK, resolutionSummaryResponse{Data: summary})
}

// compareArticles handles GET /duplicates/compare?group=N&similar=M.
// It recomputes the per-field similarity breakdown for one article pair,
// using the backend scores as floors, for the comparison view.
func (s *Server) compareArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := projectIDFromContext(ctx)

	groupIdx, ok := parseIndexParam(w, r, "group")
	if !ok {
		return
	}
	similarIdx, ok := parseIndexParam(w, r, "similar")
	if !ok {
		return
	}

	snapshot, err := s.service.Snapshot(ctx, projectID)
	if err != nil {
		s.logRequestError(ctx, err, "comparing articles failed")
		writeDomainError(w, err)
		return
	}

	if groupIdx >= len(snapshot) {
		writeError(w, http.StatusNotFound, "group index out of range")
		return
	}
	group := snapshot[groupIdx]
	if similarIdx >= len(group.SimilarArticles) {
		writeError(w, http.StatusNotFound, "similar index out of range")
		return
	}
	similar := group.SimilarArticles[similarIdx]

	scores := similarity.Compare(group.MainArticle, similar.Article, similar.Scores)

	writeJSON(w, http.StatusOK, comparisonResponse{
		MainArticle:    group.MainArticle,
		SimilarArticle: similar.Article,
		Confidence:     group.Confidence,
		ConfidenceTier: string(similarity.ConfidenceTier(group.Confidence)),
		Scores:         toFieldScores(scores),
	})
}

// parseListParams converts list query parameters into a filter and sort order.
func parseListParams(r *http.Request) (groups.Filter, groups.SortOrder, error) {
	q := r.URL.Query()
	filter := groups.Filter{
		Search:      q.Get("search"),
		Status:      groups.StatusFilter(q.Get("status")),
		DateRange:   groups.DateRange(q.Get("dateRange")),
		AuthorCount: groups.AuthorCount(q.Get("authorCount")),
		HasAbstract: groups.AbstractFilter(q.Get("hasAbstract")),
	}

	if v := q.Get("minConfidence"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return groups.Filter{}, "", fmt.Errorf("minConfidence must be an integer between 0 and 100")
		}
		filter.MinConfidence = n
	}
	if v := q.Get("minSimilarity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return groups.Filter{}, "", fmt.Errorf("minSimilarity must be a number between 0 and 1")
		}
		filter.MinSimilarity = f
	}

	sortOrder := groups.SortOrder(q.Get("sort"))
	if sortOrder != "" && !groups.IsValidSortOrder(sortOrder) {
		return groups.Filter{}, "", fmt.Errorf("unsupported sort order: %s", sortOrder)
	}

	return filter, sortOrder, nil
}

// parseIndexParam parses a non-negative integer query parameter, writing a
// 400 error response if missing or invalid.
func parseIndexParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s parameter is required", name))
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a non-negative integer", name))
		return 0, false
	}
	return n, true
}

// validationMessage renders the first validation failure as a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required", "min":
			return fmt.Sprintf("%s is required", fe.Field())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
	return "invalid request body"
}

// logRequestError logs a handler failure with project and correlation context.
func (s *Server) logRequestError(ctx context.Context, err error, msg string) {
	logger := observability.WithProjectContext(s.logger, correlationIDFromContext(ctx), projectIDFromContext(ctx))
	logger.Error().Err(err).Msg(msg)
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrOperationInFlight):
		var oe *domain.OperationInFlightError
		if errors.As(err, &oe) {
			writeError(w, http.StatusConflict, oe.Error())
		} else {
			writeError(w, http.StatusConflict, "operation already in progress")
		}
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
