package gesture

import (
	"math/rand"
	"sync"
	"time"
)

// Color is an overlay display color.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Palette is the fixed set of pastel colors a gesture can select.
var Palette = []Color{
	{Name: "pink", Hex: "#FADADD"},
	{Name: "blue", Hex: "#B0E0E6"},
	{Name: "green", Hex: "#C1E1C1"},
	{Name: "yellow", Hex: "#FFFACD"},
	{Name: "red", Hex: "#FFB6B9"},
	{Name: "peach", Hex: "#FFDAC1"},
	{Name: "purple", Hex: "#E0BBE4"},
	{Name: "mint", Hex: "#D5F4E6"},
}

// DefaultColor is the color a session starts with.
var DefaultColor = Palette[0]

// InPalette reports whether c is one of the palette colors.
func InPalette(c Color) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// ColorState holds the current overlay color. Only the frame loop writes
// it; other goroutines may read it concurrently.
type ColorState struct {
	mu       sync.RWMutex
	current  Color
	rnd      *rand.Rand
	onChange func(prev, next Color)
	changes  int
}

// ColorOption configures a ColorState.
type ColorOption func(*ColorState)

// WithRand sets the random source used to pick colors.
func WithRand(r *rand.Rand) ColorOption {
	return func(c *ColorState) {
		c.rnd = r
	}
}

// WithInitial sets the starting color.
func WithInitial(col Color) ColorOption {
	return func(c *ColorState) {
		c.current = col
	}
}

// NewColorState creates a ColorState starting at DefaultColor.
func NewColorState(opts ...ColorOption) *ColorState {
	c := &ColorState{current: DefaultColor}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// OnChange registers a callback invoked after every gesture-driven change,
// including picks that land on the same color.
func (c *ColorState) OnChange(fn func(prev, next Color)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// OnGestureEvent picks a new color uniformly from the palette. The pick
// may repeat the current color.
func (c *ColorState) OnGestureEvent() Color {
	c.mu.Lock()
	prev := c.current
	next := Palette[c.rnd.Intn(len(Palette))]
	c.current = next
	c.changes++
	callback := c.onChange
	c.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(prev, next)
	}
	return next
}

// Current returns the current color.
func (c *ColorState) Current() Color {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Changes returns how many gesture events have been applied.
func (c *ColorState) Changes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changes
}
