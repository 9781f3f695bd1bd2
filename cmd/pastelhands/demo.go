package main

import (
	"context"
	"time"

	"github.com/ayusman/pastelhands/internal/detector"
)

const demoPeriod = 1500 * time.Millisecond

// demoHand alternates the mock hand between a pinch and a wide spread so
// the overlay changes color without a camera.
func demoHand(det *detector.MockDetector, width, height int) func(context.Context) error {
	cx, cy := float64(width)/2, float64(height)/2
	spreads := []float64{60, float64(width) / 4}

	return func(ctx context.Context) error {
		ticker := time.NewTicker(demoPeriod)
		defer ticker.Stop()

		for i := 0; ; i++ {
			det.SetHands([]detector.Hand{detector.SpreadHand(cx, cy, spreads[i%len(spreads)])})

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}
