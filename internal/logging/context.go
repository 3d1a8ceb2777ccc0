package logging

import (
	"context"
	"log/slog"

	"ytmeta/internal/services"
)

// ContextFields returns the run id and show carried by ctx as attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if show, ok := services.ShowFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldShow, show))
	}
	return fields
}

// WithContext returns logger enriched with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
