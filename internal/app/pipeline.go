package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/capture"
)

// run is the frame loop. One cycle runs per tick; the ticker drops ticks
// while a cycle is still in flight, so cycles never overlap.
func (a *App) run(ctx context.Context, s *Session, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			err := a.cycle(ctx, s)
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			n := s.fail()
			s.log.WithError(err).WithField("failures", n).Warn("frame skipped")
		}
	}
}

// cycle processes one frame:
//  1. skip quietly while the source is not ready
//  2. read the frame and wait for landmarks
//  3. run every gesture update for the frame
//  4. redraw the overlay with the resulting color
//  5. publish the result
func (a *App) cycle(ctx context.Context, s *Session) error {
	if !a.camera.Ready() {
		pushEvent(s.fsm, s.log, eventSourceLost)
		return nil
	}
	pushEvent(s.fsm, s.log, eventSourceReady)

	frame, err := a.camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrSourceNotReady) {
			return nil
		}
		return errors.Wrap(err, "read frame")
	}
	defer frame.Close()

	hands, err := a.Detector().Detect(ctx, frame)
	if err != nil {
		return errors.Wrap(err, "detect hands")
	}

	s.applyTuning(a.Tuning())

	now := a.config.Clock()
	out := s.engine.Process(hands, now)

	width, height := frame.Cols(), frame.Rows()
	if err := s.renderer.Render(s.surface, width, height, out.FingertipSets(), out.Color); err != nil {
		return errors.Wrap(err, "render overlay")
	}

	seq := s.nextSeq()
	if len(out.Events) > 0 {
		s.log.WithFields(logrus.Fields{
			"seq":    seq,
			"events": len(out.Events),
			"color":  out.Color.Name,
		}).Debug("color changed")
	}

	a.frames.publish(FrameResult{
		SessionID: s.ID.String(),
		Seq:       seq,
		Timestamp: now,
		Width:     width,
		Height:    height,
		Color:     out.Color,
		Hands:     out.Hands,
		Events:    out.Events,
	})

	if a.preview.wanted() {
		img, err := frame.ToImage()
		if err != nil {
			return errors.Wrap(err, "convert frame")
		}
		a.preview.set(Preview{
			Seq:     seq,
			Frame:   img,
			Overlay: s.surface.Image(),
		})
	}

	return nil
}
