package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	projectIDKey contextKey = "project_id"
)

// WithRequestID adds a request correlation ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request correlation ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithProjectID adds the project ID to the context.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectIDKey, projectID)
}

// ProjectIDFromContext retrieves the project ID from context.
// Returns empty string if not present.
func ProjectIDFromContext(ctx context.Context) string {
	if v := ctx.Value(projectIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
