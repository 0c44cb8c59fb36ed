package httpx

import (
	"net/http"
)

// TabCounter reports how many tabs the process holds.
type TabCounter interface {
	Len() int
}

type healthPayload struct {
	Status string `json:"status"`
	Tabs   int    `json:"tabs"`
}

// healthHandler returns a 200 OK status for readiness/liveness checks,
// with the number of live tabs when tabs is set.
func healthHandler(tabs TabCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := healthPayload{Status: "ok"}
		if tabs != nil {
			p.Tabs = tabs.Len()
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	}
}
