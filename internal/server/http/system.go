package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// LivezHandler reports process liveness. It never touches the store.
func LivezHandler(start time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(start).Round(time.Second).String(),
		})
	})
}

// ReadyzHandler reports readiness by pinging the store.
func ReadyzHandler(start time.Time, version string, st store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "unavailable",
				Version: version,
				Uptime:  time.Since(start).Round(time.Second).String(),
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(start).Round(time.Second).String(),
		})
	})
}

// NotFoundHandler is the fallback for unmatched routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteMessage(w, http.StatusNotFound, "Resource not found")
}
