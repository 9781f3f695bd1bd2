package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []Hand
	queue  [][]Hand
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect once any queued
// results are used up.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-call results. Each Detect call consumes one entry.
func (m *MockDetector) Queue(results ...[]Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(ctx context.Context, frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SpreadHand returns a complete right hand centered on (cx, cy) whose thumb
// and pinky tips lie exactly spread pixels apart on a horizontal line.
func SpreadHand(cx, cy, spread float64) Hand {
	hand := Hand{
		Points:     make([]Keypoint, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	half := spread / 2
	tipY := cy - 80

	hand.Points[Wrist] = Keypoint{X: cx, Y: cy + 60}

	// Fingertips evenly spaced from thumb (left) to pinky (right).
	tips := []int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
	for i, tip := range tips {
		x := cx - half + spread*float64(i)/4
		y := tipY
		if tip == ThumbTip || tip == PinkyTip {
			y = cy
		}
		hand.Points[tip] = Keypoint{X: x, Y: y}

		// Joints sit on the line from the wrist to the tip.
		for j := 1; j <= 3; j++ {
			f := float64(j) / 4
			hand.Points[tip-4+j] = Keypoint{
				X: hand.Points[Wrist].X + (x-hand.Points[Wrist].X)*f,
				Y: hand.Points[Wrist].Y + (y-hand.Points[Wrist].Y)*f,
			}
		}
	}

	return hand
}

// OpenPalm returns a relaxed open hand in the middle of a 640x480 frame.
func OpenPalm() Hand {
	return SpreadHand(320, 240, 160)
}

// Truncated returns a copy of hand holding only its first n points.
func Truncated(hand Hand, n int) Hand {
	if n > len(hand.Points) {
		n = len(hand.Points)
	}
	out := hand
	out.Points = append([]Keypoint(nil), hand.Points[:n]...)
	return out
}
