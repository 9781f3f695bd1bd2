package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/pastelhands/internal/app"
	"github.com/ayusman/pastelhands/internal/overlay"
)

// PreviewSource provides the latest frame and overlay.
type PreviewSource interface {
	WatchPreview() func()
	Preview() (app.Preview, bool)
}

// StreamHandler serves the camera preview with the overlay drawn on top
// as MJPEG.
type StreamHandler struct {
	source   PreviewSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(source PreviewSource, interval time.Duration) *StreamHandler {
	return &StreamHandler{source: source, interval: interval}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	unwatch := h.source.WatchPreview()
	defer unwatch()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var (
		buf  bytes.Buffer
		last uint64
	)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		p, ok := h.source.Preview()
		if !ok || p.Seq == last {
			continue
		}
		last = p.Seq

		buf.Reset()
		if err := overlay.CompositeJPEG(&buf, p.Frame, p.Overlay, overlay.DefaultJPEGQuality); err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
