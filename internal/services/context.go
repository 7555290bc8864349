package services

import "context"

type contextKey string

const (
	showIDKey    contextKey = "show_id"
	seasonKey    contextKey = "season"
	requestIDKey contextKey = "request_id"
)

// WithShowID annotates context with the external show identifier.
func WithShowID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, showIDKey, id)
}

// ShowIDFromContext extracts the external show identifier if present.
func ShowIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(showIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSeason annotates context with the season being processed.
func WithSeason(ctx context.Context, season int) context.Context {
	if season <= 0 {
		return ctx
	}
	return context.WithValue(ctx, seasonKey, season)
}

// SeasonFromContext returns the season number if present.
func SeasonFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(seasonKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
