package gesture

import (
	"math"
	"time"

	"github.com/ayusman/pastelhands/internal/detector"
)

// Reference tuning for the spread/pinch signal.
const (
	DefaultChangeThreshold = 40.0
	DefaultMinInterval     = 300 * time.Millisecond
)

// Thresholds tunes when a distance change counts as a gesture.
type Thresholds struct {
	// ChangeThreshold is the frame-to-frame distance change, in pixels,
	// that must be exceeded.
	ChangeThreshold float64
	// MinInterval is the cooldown after a fired event.
	MinInterval time.Duration
}

// DefaultThresholds returns the reference tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ChangeThreshold: DefaultChangeThreshold,
		MinInterval:     DefaultMinInterval,
	}
}

// State is the gesture memory of one tracking slot.
// The zero value has no previous distance and has never fired.
type State struct {
	prevDistance float64
	hasPrev      bool
	lastChange   time.Time
}

// PreviousDistance returns the last recorded thumb-pinky distance.
func (s *State) PreviousDistance() (float64, bool) {
	return s.prevDistance, s.hasPrev
}

// LastChange returns when the slot last fired; the zero time means never.
func (s *State) LastChange() time.Time {
	return s.lastChange
}

// Event is a qualifying spread/pinch change.
type Event struct {
	Slot     int       `json:"slot"`
	Distance float64   `json:"distance"`
	Delta    float64   `json:"delta"`
	At       time.Time `json:"at"`
}

// Signal detects spread/pinch events from fingertip sets.
type Signal struct {
	thresholds Thresholds
}

// NewSignal creates a Signal with the given thresholds.
func NewSignal(t Thresholds) *Signal {
	return &Signal{thresholds: t}
}

// Thresholds returns the signal's tuning.
func (g *Signal) Thresholds() Thresholds {
	return g.thresholds
}

// SpreadDistance is the distance between the first and last fingertip.
func SpreadDistance(tips []detector.Keypoint) float64 {
	if len(tips) < 2 {
		return 0
	}
	return detector.Distance(tips[0], tips[len(tips)-1])
}

// Update feeds one frame's fingertips for a slot into its state.
//
// Only complete sets count; anything else leaves state untouched. The first
// complete set only records a distance. Afterwards an event fires when the
// change exceeds ChangeThreshold and more than MinInterval has passed since
// the slot last fired. The previous distance follows every complete set,
// whether or not an event fired.
func (g *Signal) Update(s *State, tips []detector.Keypoint, now time.Time) (Event, bool) {
	if s == nil || len(tips) != NumFingertips {
		return Event{}, false
	}

	distance := SpreadDistance(tips)
	if !s.hasPrev {
		s.prevDistance = distance
		s.hasPrev = true
		return Event{}, false
	}

	delta := math.Abs(distance - s.prevDistance)
	s.prevDistance = distance

	if delta <= g.thresholds.ChangeThreshold {
		return Event{}, false
	}
	if !s.lastChange.IsZero() && now.Sub(s.lastChange) <= g.thresholds.MinInterval {
		return Event{}, false
	}

	s.lastChange = now
	return Event{Distance: distance, Delta: delta, At: now}, true
}
