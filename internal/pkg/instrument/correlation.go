package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID stores the correlation id used to stitch log lines together.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation id stored in ctx, if any.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
