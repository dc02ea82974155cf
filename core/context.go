package core

import "context"

// Context keys for ingestion values
type contextKey string

const runIDKey contextKey = "runID"

// withRunID stores the run id of the ingestion in progress
func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the run id, or "-" outside of an ingestion
func runIDFromContext(ctx context.Context) string {
	val := ctx.Value(runIDKey)
	if val == nil {
		return "-"
	}
	runID, ok := val.(string)
	if !ok || runID == "" {
		return "-"
	}
	return runID
}
