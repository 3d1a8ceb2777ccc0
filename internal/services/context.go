package services

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	showKey
)

// WithRunID annotates context with the indexing pass identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the indexing pass identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return valueOf(ctx, runIDKey)
}

// WithShow annotates context with the name of the show being processed.
func WithShow(ctx context.Context, show string) context.Context {
	return withValue(ctx, showKey, show)
}

// ShowFromContext returns the show name if present.
func ShowFromContext(ctx context.Context) (string, bool) {
	return valueOf(ctx, showKey)
}

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueOf(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}
