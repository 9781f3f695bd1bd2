package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/pastelhands/internal/app"
	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHookHandler_Workflow(t *testing.T) {
	s := newTestStore(t)
	handler := NewHookHandler(s)

	rec := do(handler, http.MethodPost, "/api/hooks", `{"name":"notify","command":"/bin/true","args":["-x"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	var created hookResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || !created.Enabled || len(created.Args) != 1 {
		t.Errorf("created = %+v", created)
	}

	rec = do(handler, http.MethodGet, "/api/hooks", "")
	var listed listHooksResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Hooks) != 1 || listed.Hooks[0].Name != "notify" {
		t.Errorf("list = %+v", listed)
	}

	rec = do(handler, http.MethodPut, "/api/hooks/"+created.ID, `{"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	var updated hookResponse
	json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Enabled || updated.Command != "/bin/true" {
		t.Errorf("updated = %+v", updated)
	}

	rec = do(handler, http.MethodGet, "/api/hooks/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d", rec.Code)
	}

	rec = do(handler, http.MethodDelete, "/api/hooks/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec = do(handler, http.MethodGet, "/api/hooks/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", rec.Code)
	}
}

func TestHookHandler_Errors(t *testing.T) {
	handler := NewHookHandler(newTestStore(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, "/api/hooks", "{", http.StatusBadRequest},
		{"missing name", http.MethodPost, "/api/hooks", `{"command":"x"}`, http.StatusBadRequest},
		{"missing command", http.MethodPost, "/api/hooks", `{"name":"x"}`, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/api/hooks/nope", "", http.StatusNotFound},
		{"update unknown", http.MethodPut, "/api/hooks/nope", `{}`, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/hooks/nope", "", http.StatusNotFound},
		{"collection patch", http.MethodPatch, "/api/hooks", "", http.StatusMethodNotAllowed},
		{"item post", http.MethodPost, "/api/hooks/x", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(handler, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHookHandler_DuplicateName(t *testing.T) {
	handler := NewHookHandler(newTestStore(t))

	do(handler, http.MethodPost, "/api/hooks", `{"name":"a","command":"x"}`)
	if rec := do(handler, http.MethodPost, "/api/hooks", `{"name":"a","command":"y"}`); rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestSettingsHandler(t *testing.T) {
	s := newTestStore(t)
	var applied []store.OverlaySettings
	handler := NewSettingsHandler(s, func(o store.OverlaySettings) { applied = append(applied, o) })

	rec := do(handler, http.MethodGet, "/api/settings", "")
	var got store.OverlaySettings
	json.NewDecoder(rec.Body).Decode(&got)
	if got != store.DefaultOverlaySettings() {
		t.Errorf("GET = %+v, want defaults", got)
	}

	rec = do(handler, http.MethodPut, "/api/settings", `{"change_threshold":42,"line_color":"#00FF00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body)
	}

	want := store.DefaultOverlaySettings()
	want.ChangeThreshold = 42
	want.LineColor = "#00FF00"

	stored, _ := s.Settings().Overlay()
	if stored != want {
		t.Errorf("stored = %+v, want %+v", stored, want)
	}
	if len(applied) != 1 || applied[0] != want {
		t.Errorf("applied = %+v", applied)
	}
}

func TestSettingsHandler_Invalid(t *testing.T) {
	s := newTestStore(t)
	called := false
	handler := NewSettingsHandler(s, func(store.OverlaySettings) { called = true })

	for _, body := range []string{"{", `{"dot_radius":-1}`, `{"line_color":"red"}`} {
		if rec := do(handler, http.MethodPut, "/api/settings", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
	if called {
		t.Error("invalid settings must not be applied")
	}
	if rec := do(handler, http.MethodDelete, "/api/settings", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", rec.Code)
	}
}

type fakeController struct {
	enabled bool
}

func (f *fakeController) Status() app.Status {
	return app.Status{State: "running", Enabled: f.enabled, Color: gesture.DefaultColor}
}

func (f *fakeController) SetEnabled(enabled bool) { f.enabled = enabled }

func TestStateHandler(t *testing.T) {
	ctl := &fakeController{enabled: true}
	handler := NewStateHandler(ctl)

	rec := do(handler, http.MethodGet, "/api/state", "")
	var st app.Status
	json.NewDecoder(rec.Body).Decode(&st)
	if !st.Enabled || st.Color != gesture.DefaultColor {
		t.Errorf("GET = %+v", st)
	}

	rec = do(handler, http.MethodPut, "/api/state", `{"enabled":false}`)
	if rec.Code != http.StatusOK || ctl.enabled {
		t.Errorf("PUT status = %d enabled = %v", rec.Code, ctl.enabled)
	}

	if rec := do(handler, http.MethodPost, "/api/state", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing enabled: status = %d", rec.Code)
	}
	if rec := do(handler, http.MethodDelete, "/api/state", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", rec.Code)
	}
}
