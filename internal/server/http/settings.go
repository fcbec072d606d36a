package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

// SettingsHandler serves the authenticated user's settings blob. The
// identity always comes from the validated session, never from the
// request, so users can only ever touch their own settings.
type SettingsHandler struct {
	UserService *service.UserService
}

type settingsUpdateRequest struct {
	Settings json.RawMessage `json:"settings"`
}

// HandleGet handles GET /v1/user_settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r.Context())
	if userID == "" {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	settings, err := h.UserService.GetSettings(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session outlived the account.
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		slogx.FromContext(r.Context()).Error("settings fetch failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	_, _ = w.Write(settings)
}

// HandlePut handles PUT /v1/user_settings with a merge-patch body.
func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r.Context())
	if userID == "" {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req settingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Settings) == 0 {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.UserService.UpdateSettings(r.Context(), userID, req.Settings); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		slogx.FromContext(r.Context()).Error("settings update failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Settings updated")
}
