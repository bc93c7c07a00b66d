package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey namespaces values this package stores on a request context.
type ContextKey string

// TraceIDKey is the context key holding the per-request trace ID.
const TraceIDKey ContextKey = "traceID"

// SetTraceID returns a copy of ctx carrying a fresh 32 character trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, NewTraceID())
}

// GetTraceID returns the trace ID stored on ctx, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// NewTraceID generates a random trace ID as 32 lowercase hex characters.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
