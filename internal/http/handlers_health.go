package httpx

import (
	"net/http"
	"time"
)

// livenessResponse is the /livez body. It only says the process is serving; dependency
// checks live behind /healthz when configured.
type livenessResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

const dashboardServiceName = "darah-dashboard"

func livenessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, livenessResponse{
		Status:    "ok",
		Service:   dashboardServiceName,
		Timestamp: time.Now().UTC(),
	})
}
