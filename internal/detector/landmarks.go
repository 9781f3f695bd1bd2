// Package detector provides the hand landmark source used by the overlay pipeline.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Keypoint is a 2D landmark position in video pixel coordinates.
type Keypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hand is one detected hand. Points are ordered by landmark index and
// normally hold NumLandmarks entries; a short slice means the model
// returned a partial detection.
type Hand struct {
	Points     []Keypoint `json:"points"`
	Handedness string     `json:"handedness"` // "Left" or "Right"
	Score      float64    `json:"score"`
}

// Point returns the keypoint at landmark index i.
func (h Hand) Point(i int) (Keypoint, bool) {
	if i < 0 || i >= len(h.Points) {
		return Keypoint{}, false
	}
	return h.Points[i], true
}

// Complete reports whether the hand carries every landmark.
func (h Hand) Complete() bool {
	return len(h.Points) >= NumLandmarks
}

// Distance returns the Euclidean distance between two keypoints.
func Distance(a, b Keypoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
