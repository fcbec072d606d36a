package http

import (
	"errors"
	"net/http"

	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

// UsersHandler serves the session-protected user lookup endpoints.
type UsersHandler struct {
	UserService *service.UserService
}

type userResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PfpURL string `json:"pfp_url,omitempty"`
}

// HandleGet handles GET /v1/users?id=<id>.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteMessage(w, http.StatusNotFound, "Resource not found")
			return
		}
		slogx.FromContext(r.Context()).Error("user lookup failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse{
		ID:     user.ID,
		Name:   user.Name,
		PfpURL: user.PfpURL,
	})
}

// HandleSearch handles GET /v1/users/search?filter=<substring>.
func (h *UsersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	if len(filter) < 2 {
		httpx.WriteMessage(w, http.StatusBadRequest, "Filter must be at least 2 characters long")
		return
	}

	results, err := h.UserService.SearchUsers(r.Context(), filter)
	if err != nil {
		slogx.FromContext(r.Context()).Error("user search failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]userResponse, 0, len(results))
	for _, res := range results {
		out = append(out, userResponse{ID: res.ID, Name: res.Name, PfpURL: res.PfpURL})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
