package http

import (
	"net/http"
	"time"

	"github.com/babili/authd/pkg/httpx"
)

// LivezHandler is the liveness probe; it returns 200 whenever the
// process is up, together with uptime and version information.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
