package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/app"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameSource publishes frame results.
type FrameSource interface {
	Subscribe(buffer int) (<-chan app.FrameResult, func())
}

// FramesHandler pushes every frame result to WebSocket clients as JSON.
type FramesHandler struct {
	source FrameSource
	log    *logrus.Entry
}

// NewFramesHandler creates a new FramesHandler.
func NewFramesHandler(source FrameSource, log *logrus.Entry) *FramesHandler {
	return &FramesHandler{source: source, log: log}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	frames, unsubscribe := h.source.Subscribe(8)
	defer unsubscribe()

	// Clients only send close frames; reading surfaces the disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case res, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				h.log.WithError(err).Debug("websocket write")
				return
			}
		}
	}
}
