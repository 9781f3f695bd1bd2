package gesture

import (
	"math"
	"sort"

	"github.com/ayusman/pastelhands/internal/detector"
)

// Tracker defaults.
const (
	DefaultMaxJump  = 200.0
	DefaultMaxSlots = 2
)

// TrackerConfig tunes hand-slot assignment.
type TrackerConfig struct {
	// MaxJump is the largest wrist movement, in pixels, between frames that
	// is matched by position first. Farther hands still reuse a free slot.
	MaxJump float64
	// MaxSlots caps the number of slots kept, normally the detector's
	// MaxHands. Slots are only evicted beyond this cap.
	MaxSlots int
	// Shared puts every hand in one slot, so all hands feed a single
	// gesture state.
	Shared bool
}

// DefaultTrackerConfig returns per-hand tracking with the default limits.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxJump:  DefaultMaxJump,
		MaxSlots: DefaultMaxSlots,
	}
}

// Slot is one tracked hand and its gesture state.
type Slot struct {
	ID     int
	State  State
	anchor detector.Keypoint
	missed int
}

// Tracker keeps gesture state per hand across frames by matching each
// detected hand to the slot whose last wrist position is nearest. A slot
// outlives any number of empty frames; its state stays frozen until a hand
// claims it again.
type Tracker struct {
	config TrackerConfig
	slots  []*Slot
	nextID int
}

// NewTracker creates a Tracker.
func NewTracker(config TrackerConfig) *Tracker {
	if config.MaxJump <= 0 {
		config.MaxJump = DefaultMaxJump
	}
	if config.MaxSlots <= 0 {
		config.MaxSlots = DefaultMaxSlots
	}
	return &Tracker{config: config}
}

// Len returns the number of live slots.
func (t *Tracker) Len() int {
	return len(t.slots)
}

// Reset drops every slot.
func (t *Tracker) Reset() {
	t.slots = nil
	t.nextID = 0
}

type candidate struct {
	hand     int
	slot     int
	distance float64
}

// Assign returns the slot for each hand, in hand order. Hands with no
// points get a nil slot.
func (t *Tracker) Assign(hands []detector.Hand) []*Slot {
	result := make([]*Slot, len(hands))

	if t.config.Shared {
		return t.assignShared(hands, result)
	}

	anchors := make([]detector.Keypoint, len(hands))
	valid := make([]bool, len(hands))
	for i, h := range hands {
		anchors[i], valid[i] = handAnchor(h)
	}

	slotUsed := make([]bool, len(t.slots))

	// Step 1: pairs within reach, closest first
	t.match(anchors, valid, result, slotUsed, t.config.MaxJump)

	// Step 2: leftover hands take the nearest free slot at any distance
	t.match(anchors, valid, result, slotUsed, math.Inf(1))

	for j, s := range t.slots {
		if !slotUsed[j] {
			s.missed++
		}
	}

	// Step 3: open slots for hands that found none
	for i := range hands {
		if !valid[i] || result[i] != nil {
			continue
		}
		s := &Slot{ID: t.nextID, anchor: anchors[i]}
		t.nextID++
		t.slots = append(t.slots, s)
		result[i] = s
	}

	t.evict()
	return result
}

// match pairs unassigned hands with unclaimed slots no farther than reach,
// closest pairs first.
func (t *Tracker) match(anchors []detector.Keypoint, valid []bool, result []*Slot, slotUsed []bool, reach float64) {
	var candidates []candidate
	for i := range anchors {
		if !valid[i] || result[i] != nil {
			continue
		}
		for j, s := range t.slots {
			if slotUsed[j] {
				continue
			}
			d := detector.Distance(anchors[i], s.anchor)
			if d <= reach {
				candidates = append(candidates, candidate{hand: i, slot: j, distance: d})
			}
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})

	for _, c := range candidates {
		if result[c.hand] != nil || slotUsed[c.slot] {
			continue
		}
		s := t.slots[c.slot]
		s.anchor = anchors[c.hand]
		s.missed = 0
		result[c.hand] = s
		slotUsed[c.slot] = true
	}
}

// evict drops the longest-unseen slots while there are more than MaxSlots.
// Slots claimed this frame are never dropped.
func (t *Tracker) evict() {
	for len(t.slots) > t.config.MaxSlots {
		victim := -1
		for j, s := range t.slots {
			if s.missed == 0 {
				continue
			}
			if victim < 0 || s.missed > t.slots[victim].missed {
				victim = j
			}
		}
		if victim < 0 {
			return
		}
		t.slots = append(t.slots[:victim], t.slots[victim+1:]...)
	}
}

func (t *Tracker) assignShared(hands []detector.Hand, result []*Slot) []*Slot {
	if len(t.slots) == 0 {
		t.slots = []*Slot{{ID: 0}}
		t.nextID = 1
	}
	for i := range hands {
		result[i] = t.slots[0]
	}
	return result
}

// handAnchor is the wrist, or the centroid of whatever points a partial
// hand carries.
func handAnchor(h detector.Hand) (detector.Keypoint, bool) {
	if p, ok := h.Point(detector.Wrist); ok && h.Complete() {
		return p, true
	}
	if len(h.Points) == 0 {
		return detector.Keypoint{}, false
	}
	var sumX, sumY float64
	for _, p := range h.Points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(h.Points))
	return detector.Keypoint{X: sumX / n, Y: sumY / n}, true
}
