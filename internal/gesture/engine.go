package gesture

import (
	"time"

	"github.com/ayusman/pastelhands/internal/detector"
)

// HandResult is the per-hand output of one frame.
type HandResult struct {
	Slot       int                 `json:"slot"`
	Fingertips []detector.Keypoint `json:"fingertips"`
}

// Complete reports whether the hand produced a full fingertip set.
func (r HandResult) Complete() bool {
	return len(r.Fingertips) == NumFingertips
}

// Outcome is the gesture side of one frame: what to draw and in which color.
type Outcome struct {
	Hands  []HandResult `json:"hands"`
	Events []Event      `json:"events,omitempty"`
	Color  Color        `json:"color"`
}

// FingertipSets returns the fingertips of every hand, for rendering.
func (o Outcome) FingertipSets() [][]detector.Keypoint {
	sets := make([][]detector.Keypoint, len(o.Hands))
	for i, h := range o.Hands {
		sets[i] = h.Fingertips
	}
	return sets
}

// Engine runs fingertip extraction, slot tracking, the spread signal and the
// color state for each frame. It is not safe for concurrent use; the frame
// loop owns it.
type Engine struct {
	tracker *Tracker
	signal  *Signal
	colors  *ColorState
}

// NewEngine wires the per-frame gesture pipeline.
func NewEngine(signal *Signal, tracker *Tracker, colors *ColorState) *Engine {
	return &Engine{
		tracker: tracker,
		signal:  signal,
		colors:  colors,
	}
}

// Colors returns the engine's color state.
func (e *Engine) Colors() *ColorState {
	return e.colors
}

// SetSignal swaps the thresholds used from the next frame on. Slot
// state is kept.
func (e *Engine) SetSignal(signal *Signal) {
	e.signal = signal
}

// Signal returns the active signal.
func (e *Engine) Signal() *Signal {
	return e.signal
}

// Tracker returns the engine's slot tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Process handles the hands detected in one frame. Every gesture update
// happens before the returned color is read, so the caller renders with the
// post-event color of this same frame.
func (e *Engine) Process(hands []detector.Hand, now time.Time) Outcome {
	slots := e.tracker.Assign(hands)

	outcome := Outcome{Hands: make([]HandResult, len(hands))}
	for i, hand := range hands {
		tips := ExtractFingertips(hand, FingertipIndices)

		result := HandResult{Slot: -1, Fingertips: tips}
		if s := slots[i]; s != nil {
			result.Slot = s.ID
			if ev, ok := e.signal.Update(&s.State, tips, now); ok {
				ev.Slot = s.ID
				e.colors.OnGestureEvent()
				outcome.Events = append(outcome.Events, ev)
			}
		}
		outcome.Hands[i] = result
	}

	outcome.Color = e.colors.Current()
	return outcome
}
