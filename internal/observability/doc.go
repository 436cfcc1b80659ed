// Package observability provides logging and metrics support for the
// duplicate review service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for detections, resolutions, and backend calls
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("project_id", projectID).Msg("detection started")
//
// Add request context to logger:
//
//	logger = observability.WithProjectContext(logger, requestID, projectID)
//
// # Metrics
//
// Initialize and record metrics:
//
//	metrics := observability.NewMetrics("duplicate_review")
//	metrics.RecordDetectionStarted()
//	metrics.RecordResolution("keep_main")
//	metrics.RecordBackendRequest("fetch_groups", true, 0.125)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithProjectID(ctx, projectID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	projectID := observability.ProjectIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: Request correlation identifier
//   - project_id: Project identifier
//   - operation: Backend operation name (fetch_groups, detect, resolve, ...)
//   - resolution: Resolution action for a duplicate pair
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
