package httpx

import (
	"net/http"

	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

// SessionValidator resolves a presented session token to an identity.
// Implementations fail closed: any error means "no identity".
type SessionValidator interface {
	Validate(token string) (identity string, err error)
}

// SessionMiddleware guards protected endpoints. It reads the session
// cookie, validates it, and attaches the resolved identity to the
// request context. Missing, expired, or tampered sessions all produce
// the same generic 401.
func SessionMiddleware(v SessionValidator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			identity, err := v.Validate(cookie.Value)
			if err != nil {
				slogx.FromContext(r.Context()).Info("session validation failed", "err", err)
				WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := WithUserID(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
