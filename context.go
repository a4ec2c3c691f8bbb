package goCred

import "context"

type contextKey string

const userAgentKey contextKey = "goCred:user_agent"

// WithUserAgent attaches the caller's user-agent string to the context.
// Refresh history rows and audit events pick it up when present.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if ua, ok := ctx.Value(userAgentKey).(string); ok {
		return ua
	}
	return ""
}
