// Package status exposes the bootstrap state over a small loopback
// endpoint so the host UI can poll "is the server ready" with a plain
// GET.
package status

import (
	"encoding/json"
	"net/http"

	"github.com/tomyedwab/appshell/supervisor"
)

// Response is the JSON body returned by the status endpoint.
type Response struct {
	State string `json:"state"`
	Ready bool   `json:"ready"`
	URL   string `json:"url,omitempty"`
}

// Handler reports the supervisor's state. It returns 200 while the
// bootstrap is in progress or ready, and 503 once it has terminally
// failed so pollers can distinguish "still starting" from "never
// coming".
func Handler(sup *supervisor.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := sup.State()
		resp := Response{
			State: state.String(),
			Ready: sup.Ready(),
		}
		if resp.Ready {
			resp.URL = sup.TargetURL()
		}

		w.Header().Set("Content-Type", "application/json")
		if state == supervisor.StateFailed {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
