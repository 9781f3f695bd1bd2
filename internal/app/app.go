// Package app runs the per-frame loop: read a frame, detect hands, update the
// gesture color and redraw the fingertip overlay.
package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/capture"
	"github.com/ayusman/pastelhands/internal/detector"
	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/overlay"
)

// DefaultFrameInterval targets a 60 Hz display.
const DefaultFrameInterval = time.Second / 60

// Config holds configuration options for the application.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector

	Thresholds    gesture.Thresholds
	Tracker       gesture.TrackerConfig
	Style         overlay.Style
	FrameInterval time.Duration

	// Log is the base entry; sessions add their ID to it.
	Log *logrus.Entry
	// Clock and NewRand are replaced in tests.
	Clock   func() time.Time
	NewRand func() *rand.Rand
}

// Tuning is the live-adjustable part of the configuration.
type Tuning struct {
	Thresholds gesture.Thresholds
	Style      overlay.Style

	version uint64
}

// ColorChange is delivered to color listeners after a gesture event.
type ColorChange struct {
	SessionID string        `json:"session_id"`
	Previous  gesture.Color `json:"previous"`
	Color     gesture.Color `json:"color"`
	At        time.Time     `json:"at"`
}

// Status is a point-in-time view of the loop.
type Status struct {
	SessionID string        `json:"session_id,omitempty"`
	State     string        `json:"state"`
	Enabled   bool          `json:"enabled"`
	Color     gesture.Color `json:"color"`
	Frames    uint64        `json:"frames"`
	Failures  uint64        `json:"failures"`
	StartedAt time.Time     `json:"started_at,omitempty"`
}

// App owns the camera, the detector and the frame loop.
type App struct {
	config Config
	camera capture.Camera
	log    *logrus.Entry

	// lifecycle serializes Start and Stop, including Stop's teardown.
	lifecycle sync.Mutex

	mu       sync.RWMutex
	detector detector.Detector
	enabled  bool
	tuning   Tuning
	session  *Session
	cancel   context.CancelFunc
	done     chan struct{}

	listenersMu sync.RWMutex
	listeners   []func(ColorChange)

	frames  broadcaster
	preview previewState
}

// New creates a new App. Camera and Detector are required.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.Tracker == (gesture.TrackerConfig{}) {
		config.Tracker = gesture.DefaultTrackerConfig()
	}
	if config.Log == nil {
		config.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.NewRand == nil {
		config.NewRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}

	return &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		log:      config.Log.WithField("component", "frameloop"),
		enabled:  true,
		tuning: Tuning{
			Thresholds: config.Thresholds,
			Style:      config.Style,
			version:    1,
		},
	}, nil
}

// Start opens the camera and starts the frame loop in a new session.
// It is a no-op while the loop is already running.
func (a *App) Start(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return errors.Wrap(err, "open camera")
	}

	s := newSession(a, a.tuning, a.config.Clock())
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.session = s
	a.cancel = cancel
	a.done = done

	go a.run(loopCtx, s, done)

	s.log.WithField("interval", a.config.FrameInterval).Info("frame loop started")
	return nil
}

// Stop cancels the loop, waits for the in-flight cycle and releases the
// camera and detector. Safe to call more than once.
func (a *App) Stop() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	cancel, done, s := a.cancel, a.done, a.session
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.close()

	if err := a.camera.Close(); err != nil {
		s.log.WithError(err).Warn("close camera")
	}
	if err := a.Detector().Close(); err != nil {
		s.log.WithError(err).Warn("close detector")
	}
	a.preview.clear()

	s.log.WithFields(logrus.Fields{
		"frames":   s.Frames(),
		"failures": s.Failures(),
	}).Info("frame loop stopped")
}

// Running reports whether the loop goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// SetEnabled pauses or resumes frame processing without stopping the loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Session returns the current or most recent session, nil before Start.
func (a *App) Session() *Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Tuning returns the live thresholds and style.
func (a *App) Tuning() Tuning {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tuning
}

// SetTuning replaces thresholds and style. The running session picks them
// up on its next frame.
func (a *App) SetTuning(th gesture.Thresholds, style overlay.Style) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tuning = Tuning{
		Thresholds: th,
		Style:      style,
		version:    a.tuning.version + 1,
	}
}

// Color returns the current overlay color, or the default before Start.
func (a *App) Color() gesture.Color {
	if s := a.Session(); s != nil {
		return s.Color()
	}
	return gesture.DefaultColor
}

// Status reports the loop state.
func (a *App) Status() Status {
	a.mu.RLock()
	s, enabled := a.session, a.enabled
	a.mu.RUnlock()

	st := Status{
		State:   StateStopped,
		Enabled: enabled,
		Color:   gesture.DefaultColor,
	}
	if s == nil {
		return st
	}
	st.SessionID = s.ID.String()
	st.State = s.State()
	st.Color = s.Color()
	st.Frames = s.Frames()
	st.Failures = s.Failures()
	st.StartedAt = s.StartedAt
	return st
}

// OnColorChange registers fn for every gesture-driven color change, in
// any session. fn runs on the frame loop goroutine and must not block.
func (a *App) OnColorChange(fn func(ColorChange)) {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *App) notifyColor(c ColorChange) {
	a.listenersMu.RLock()
	listeners := a.listeners
	a.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}
