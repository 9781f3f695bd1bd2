package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pastelhands/internal/store"
)

// SettingsHandler serves GET and PUT /api/settings. A PUT may carry only
// the fields it changes; the rest keep their stored values.
type SettingsHandler struct {
	store *store.Store
	apply func(store.OverlaySettings)
}

// NewSettingsHandler creates a SettingsHandler. apply, if non-nil, is called
// with the saved settings so a running loop picks them up.
func NewSettingsHandler(s *store.Store, apply func(store.OverlaySettings)) *SettingsHandler {
	return &SettingsHandler{store: s, apply: apply}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.Settings().Overlay()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.Settings().Overlay()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := o.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Settings().SaveOverlay(o); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	if h.apply != nil {
		h.apply(o)
	}

	writeJSON(w, http.StatusOK, o)
}
