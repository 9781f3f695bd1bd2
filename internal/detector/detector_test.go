package detector

import (
	"context"
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestHand_Point(t *testing.T) {
	hand := OpenPalm()

	t.Run("valid index", func(t *testing.T) {
		p, ok := hand.Point(ThumbTip)
		if !ok {
			t.Fatal("expected thumb tip to resolve")
		}
		if p != hand.Points[ThumbTip] {
			t.Errorf("Point(ThumbTip) = %v, want %v", p, hand.Points[ThumbTip])
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, i := range []int{-1, NumLandmarks, 100} {
			if _, ok := hand.Point(i); ok {
				t.Errorf("Point(%d) should not resolve", i)
			}
		}
	})

	t.Run("short hand", func(t *testing.T) {
		short := Truncated(hand, 10)
		if short.Complete() {
			t.Error("truncated hand should not be complete")
		}
		if _, ok := short.Point(PinkyTip); ok {
			t.Error("pinky tip should not resolve on a 10-point hand")
		}
		if !hand.Complete() {
			t.Error("original hand should stay complete")
		}
	})
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Keypoint
		want float64
	}{
		{"same point", Keypoint{X: 3, Y: 4}, Keypoint{X: 3, Y: 4}, 0},
		{"3-4-5", Keypoint{X: 0, Y: 0}, Keypoint{X: 3, Y: 4}, 5},
		{"horizontal", Keypoint{X: 10, Y: 7}, Keypoint{X: 110, Y: 7}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Distance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSpreadHand(t *testing.T) {
	for _, spread := range []float64{40, 100, 145, 300} {
		hand := SpreadHand(320, 240, spread)

		if len(hand.Points) != NumLandmarks {
			t.Fatalf("expected %d points, got %d", NumLandmarks, len(hand.Points))
		}

		got := Distance(hand.Points[ThumbTip], hand.Points[PinkyTip])
		if math.Abs(got-spread) > epsilon {
			t.Errorf("spread %f: thumb-pinky distance = %f", spread, got)
		}
	}

	t.Run("joints lie between wrist and tip", func(t *testing.T) {
		hand := OpenPalm()
		wrist := hand.Points[Wrist]
		tip := hand.Points[IndexTip]
		for _, j := range []int{IndexMCP, IndexPIP, IndexDIP} {
			p := hand.Points[j]
			if p.Y > wrist.Y || p.Y < tip.Y {
				t.Errorf("joint %d at %v is outside wrist %v and tip %v", j, p, wrist, tip)
			}
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"full model", func(c *Config) { c.ModelType = ModelFull }, false},
		{"unknown model", func(c *Config) { c.ModelType = "heavy" }, true},
		{"zero hands", func(c *Config) { c.MaxHands = 0 }, true},
		{"confidence too high", func(c *Config) { c.MinConfidence = 1.5 }, true},
		{"negative tracking confidence", func(c *Config) { c.MinTrackingConf = -0.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONHand_ToHand(t *testing.T) {
	h := jsonHand{
		Points:     []jsonPoint{{X: 0.5, Y: 0.25}, {X: 1, Y: 1}},
		Handedness: "Left",
		Score:      0.8,
	}

	hand := h.toHand(640, 480)

	if len(hand.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(hand.Points))
	}
	if hand.Points[0] != (Keypoint{X: 320, Y: 120}) {
		t.Errorf("point 0 = %v, want {320 120}", hand.Points[0])
	}
	if hand.Points[1] != (Keypoint{X: 640, Y: 480}) {
		t.Errorf("point 1 = %v, want {640 480}", hand.Points[1])
	}
	if hand.Handedness != "Left" || hand.Score != 0.8 {
		t.Errorf("metadata not preserved: %+v", hand)
	}
}

func TestMediaPipeDetector_Args(t *testing.T) {
	d := &MediaPipeDetector{
		config: Config{
			ModelType:       ModelFull,
			MaxHands:        1,
			MinConfidence:   0.6,
			MinTrackingConf: 0.4,
			SolutionPath:    "/opt/models",
		},
		scriptPath: "/srv/landmark_service.py",
	}

	args := d.args()
	want := []string{
		"/srv/landmark_service.py",
		"--model", "full",
		"--max-hands", "1",
		"--min-detection-confidence", "0.6",
		"--min-tracking-confidence", "0.4",
		"--solution-path", "/opt/models",
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestMockDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(ctx, nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{OpenPalm(), SpreadHand(100, 100, 50)})

		hands, err := mock.Detect(ctx, nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("queued results come first", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{OpenPalm()})
		mock.Queue(nil, []Hand{OpenPalm(), OpenPalm()})

		counts := []int{}
		for i := 0; i < 3; i++ {
			hands, _ := mock.Detect(ctx, nil)
			counts = append(counts, len(hands))
		}

		want := []int{0, 2, 1}
		for i := range want {
			if counts[i] != want[i] {
				t.Errorf("call %d returned %d hands, want %d", i, counts[i], want[i])
			}
		}
		if mock.Calls() != 3 {
			t.Errorf("Calls() = %d, want 3", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(ctx, nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{OpenPalm()})

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := mock.Detect(cctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() after Close")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}
