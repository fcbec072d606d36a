package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

// LoginHandler handles POST /v1/login. Every failure mode that the
// caller controls collapses into the same 401 body so responses do not
// leak whether a username exists or an account is locked out.
type LoginHandler struct {
	AuthService *service.AuthService
	Cookie      CookieConfig
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		slogx.FromContext(r.Context()).Error("login failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.AuthService.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteMessage(w, http.StatusOK, "Logged in")
}
