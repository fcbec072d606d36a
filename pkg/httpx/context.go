package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID carries the authenticated identity through the
	// request context once the session middleware has validated it.
	CtxKeyUserID ctxKey = "user_id"
)

// UserID returns the authenticated identity from the context, or ""
// when the request carries no validated session.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// WithUserID attaches the authenticated identity to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
