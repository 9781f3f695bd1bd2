// Package gesture turns per-frame hand landmarks into fingertip sets,
// spread/pinch events and the overlay color they drive.
package gesture

import "github.com/ayusman/pastelhands/internal/detector"

// FingertipIndices lists the fingertip landmarks, thumb to pinky.
var FingertipIndices = []int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// NumFingertips is the size of a complete fingertip set.
const NumFingertips = 5

// ExtractFingertips returns the keypoints of hand at the given indices, in
// index-list order. Indices the hand does not carry are skipped, so a
// malformed hand yields a shorter slice.
func ExtractFingertips(hand detector.Hand, indices []int) []detector.Keypoint {
	tips := make([]detector.Keypoint, 0, len(indices))
	for _, i := range indices {
		if p, ok := hand.Point(i); ok {
			tips = append(tips, p)
		}
	}
	return tips
}
