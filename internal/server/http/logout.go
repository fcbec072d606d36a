package http

import (
	"net/http"

	"github.com/hellomouse/pinboard-server/pkg/httpx"
)

// LogoutHandler handles POST /v1/logout. Sessions are stateless, so
// logout is purely a client-side affair: the cookie is expired and any
// copy of the token remains valid until its TTL runs out.
type LogoutHandler struct {
	Cookie CookieConfig
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteMessage(w, http.StatusOK, "You logged out")
}
