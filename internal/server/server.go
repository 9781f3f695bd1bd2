// Package server provides the HTTP server for the overlay: a preview
// stream, live frame results and the settings API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/app"
	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/overlay"
	"github.com/ayusman/pastelhands/internal/server/api"
	"github.com/ayusman/pastelhands/internal/store"
)

// Pipeline is the part of *app.App the server talks to.
type Pipeline interface {
	Status() app.Status
	SetEnabled(enabled bool)
	SetTuning(th gesture.Thresholds, style overlay.Style)
	Subscribe(buffer int) (<-chan app.FrameResult, func())
	WatchPreview() func()
	Preview() (app.Preview, bool)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       Pipeline
	Log       *logrus.Entry

	// StreamInterval paces the MJPEG preview. Defaults to ~15 FPS.
	StreamInterval time.Duration
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    *logrus.Entry
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.StreamInterval <= 0 {
		config.StreamInterval = 66 * time.Millisecond
	}
	log := config.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.WithField("component", "http"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		var apply func(store.OverlaySettings)
		if s.config.App != nil {
			apply = func(o store.OverlaySettings) {
				s.config.App.SetTuning(o.Thresholds(), o.Style())
				s.log.WithField("settings", o).Info("overlay settings applied")
			}
		}
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, apply))

		hooks := api.NewHookHandler(s.config.Store)
		s.mux.Handle("/api/hooks", hooks)
		s.mux.Handle("/api/hooks/", hooks)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/state", api.NewStateHandler(s.config.App))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App, s.config.StreamInterval))
		s.mux.Handle("/api/frames", NewFramesHandler(s.config.App, s.log))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["loop"] = s.config.App.Status().State
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}
