package app

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/overlay"
)

// Session is the state of one Start..Stop run of the frame loop: the
// gesture slots, the color, the drawing surface and the loop state machine.
// Everything except the counters and the color is touched only by the loop
// goroutine.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	engine   *gesture.Engine
	renderer *overlay.Renderer
	surface  *gg.Context
	fsm      *fsm.FSM
	log      *logrus.Entry

	tuningVersion uint64
	seq           uint64
	failures      uint64
}

func newSession(a *App, t Tuning, now time.Time) *Session {
	id := uuid.New()
	log := a.log.WithField("session", id.String())

	colors := gesture.NewColorState(gesture.WithRand(a.config.NewRand()))
	s := &Session{
		ID:        id,
		StartedAt: now,
		engine: gesture.NewEngine(
			gesture.NewSignal(t.Thresholds),
			gesture.NewTracker(a.config.Tracker),
			colors,
		),
		renderer:      overlay.NewRenderer(t.Style),
		fsm:           newLoopFSM(log),
		log:           log,
		tuningVersion: t.version,
	}

	size := a.camera.Size()
	if size.X <= 0 || size.Y <= 0 {
		size.X, size.Y = 1, 1
	}
	s.surface = overlay.NewSurface(size.X, size.Y)

	colors.OnChange(func(prev, next gesture.Color) {
		a.notifyColor(ColorChange{
			SessionID: id.String(),
			Previous:  prev,
			Color:     next,
			At:        a.config.Clock(),
		})
	})

	return s
}

// State is the loop state machine's current state.
func (s *Session) State() string {
	return s.fsm.Current()
}

// Color is the session's current overlay color. Safe from any goroutine.
func (s *Session) Color() gesture.Color {
	return s.engine.Colors().Current()
}

// Frames is the number of frames rendered so far.
func (s *Session) Frames() uint64 {
	return atomic.LoadUint64(&s.seq)
}

// Failures is the number of cycles aborted by an error.
func (s *Session) Failures() uint64 {
	return atomic.LoadUint64(&s.failures)
}

func (s *Session) nextSeq() uint64 {
	return atomic.AddUint64(&s.seq, 1)
}

func (s *Session) fail() uint64 {
	return atomic.AddUint64(&s.failures, 1)
}

// applyTuning swaps in new thresholds and style when they changed.
// Gesture slots survive the swap.
func (s *Session) applyTuning(t Tuning) {
	if t.version == s.tuningVersion {
		return
	}
	s.engine.SetSignal(gesture.NewSignal(t.Thresholds))
	s.renderer = overlay.NewRenderer(t.Style)
	s.tuningVersion = t.version
	s.log.WithFields(logrus.Fields{
		"threshold":    t.Thresholds.ChangeThreshold,
		"min_interval": t.Thresholds.MinInterval,
	}).Info("tuning applied")
}

func (s *Session) close() {
	pushEvent(s.fsm, s.log, eventStop)
	s.surface.Close()
}
