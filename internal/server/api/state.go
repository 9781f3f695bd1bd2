package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pastelhands/internal/app"
)

// Controller is the part of the app the state endpoint drives.
type Controller interface {
	Status() app.Status
	SetEnabled(enabled bool)
}

// StateHandler reports the loop status and toggles the overlay.
type StateHandler struct {
	ctl Controller
}

// NewStateHandler creates a StateHandler for ctl.
func NewStateHandler(ctl Controller) *StateHandler {
	return &StateHandler{ctl: ctl}
}

type setStateRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctl.Status())
	case http.MethodPut, http.MethodPost:
		var req setStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.ctl.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, h.ctl.Status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
