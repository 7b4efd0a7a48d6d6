package services

import "context"

// contextKey scopes regift's correlation values inside a context.Context.
type contextKey uint8

const (
	conversionIDKey contextKey = iota + 1
	stageKey
	requestIDKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithConversionID tags ctx with the conversion being run. Blank ids are ignored.
func WithConversionID(ctx context.Context, id string) context.Context {
	return withValue(ctx, conversionIDKey, id)
}

func ConversionIDFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, conversionIDKey)
}

// WithStage records the pipeline stage (plan, extract, assemble, finalize).
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, stageKey)
}

// WithRequestID carries the HTTP request id assigned by the API middleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return lookup(ctx, requestIDKey)
}
