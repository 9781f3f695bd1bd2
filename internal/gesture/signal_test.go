package gesture

import (
	"testing"
	"time"

	"github.com/ayusman/pastelhands/internal/detector"
)

// tipsWithSpread returns a full fingertip set whose thumb-pinky distance is d.
func tipsWithSpread(d float64) []detector.Keypoint {
	hand := detector.SpreadHand(320, 240, d)
	return ExtractFingertips(hand, FingertipIndices)
}

func TestExtractFingertips(t *testing.T) {
	t.Run("complete hand yields five tips thumb to pinky", func(t *testing.T) {
		hand := detector.OpenPalm()

		tips := ExtractFingertips(hand, FingertipIndices)

		if len(tips) != NumFingertips {
			t.Fatalf("expected %d tips, got %d", NumFingertips, len(tips))
		}
		want := []int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
		for i, idx := range want {
			if tips[i] != hand.Points[idx] {
				t.Errorf("tip %d = %v, want landmark %d %v", i, tips[i], idx, hand.Points[idx])
			}
		}
	})

	t.Run("index list order is preserved", func(t *testing.T) {
		hand := detector.OpenPalm()

		tips := ExtractFingertips(hand, []int{detector.PinkyTip, detector.ThumbTip})

		if len(tips) != 2 {
			t.Fatalf("expected 2 tips, got %d", len(tips))
		}
		if tips[0] != hand.Points[detector.PinkyTip] || tips[1] != hand.Points[detector.ThumbTip] {
			t.Errorf("unexpected order: %v", tips)
		}
	})

	t.Run("short hand yields the resolvable subset", func(t *testing.T) {
		hand := detector.Truncated(detector.OpenPalm(), 13)

		tips := ExtractFingertips(hand, FingertipIndices)

		if len(tips) != 3 {
			t.Fatalf("expected 3 tips from a 13-point hand, got %d", len(tips))
		}
	})

	t.Run("empty hand", func(t *testing.T) {
		tips := ExtractFingertips(detector.Hand{}, FingertipIndices)
		if len(tips) != 0 {
			t.Errorf("expected no tips, got %d", len(tips))
		}
	})
}

func TestSignal_Update(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		prev       float64
		sinceFired time.Duration // zero means never fired
		current    float64
		wantEvent  bool
	}{
		{"delta 45 after 500ms fires", 100, 500 * time.Millisecond, 145, true},
		{"delta 30 does not fire", 100, 500 * time.Millisecond, 130, false},
		{"delta 50 within cooldown does not fire", 100, 200 * time.Millisecond, 150, false},
		{"delta exactly at threshold does not fire", 100, time.Second, 140, false},
		{"interval exactly at cooldown does not fire", 100, 300 * time.Millisecond, 200, false},
		{"shrinking distance fires too", 160, time.Second, 100, true},
		{"first event has no cooldown", 100, 0, 160, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := NewSignal(DefaultThresholds())
			state := &State{prevDistance: tt.prev, hasPrev: true}
			if tt.sinceFired > 0 {
				state.lastChange = base.Add(-tt.sinceFired)
			}

			ev, fired := sig.Update(state, tipsWithSpread(tt.current), base)

			if fired != tt.wantEvent {
				t.Fatalf("fired = %v, want %v", fired, tt.wantEvent)
			}
			if got, _ := state.PreviousDistance(); abs(got-tt.current) > 1e-9 {
				t.Errorf("previous distance = %f, want %f", got, tt.current)
			}
			if fired {
				if !state.LastChange().Equal(base) {
					t.Errorf("last change = %v, want %v", state.LastChange(), base)
				}
				if abs(ev.Delta-abs(tt.current-tt.prev)) > 1e-9 {
					t.Errorf("event delta = %f", ev.Delta)
				}
			}
		})
	}
}

func TestSignal_FirstFrameRecordsOnly(t *testing.T) {
	sig := NewSignal(DefaultThresholds())
	state := &State{}

	if _, fired := sig.Update(state, tipsWithSpread(100), time.Now()); fired {
		t.Error("first frame must not fire")
	}
	prev, ok := state.PreviousDistance()
	if !ok || abs(prev-100) > 1e-9 {
		t.Errorf("previous distance = %f, %v; want 100, true", prev, ok)
	}
	if !state.LastChange().IsZero() {
		t.Error("last change should still be unset")
	}
}

func TestSignal_IncompleteSetFreezesState(t *testing.T) {
	sig := NewSignal(DefaultThresholds())
	now := time.Now()
	state := &State{prevDistance: 100, hasPrev: true, lastChange: now.Add(-time.Second)}
	before := *state

	tips := tipsWithSpread(500)[:4]
	if _, fired := sig.Update(state, tips, now); fired {
		t.Error("incomplete set must not fire")
	}
	if *state != before {
		t.Errorf("state changed: %+v -> %+v", before, *state)
	}

	if _, fired := sig.Update(nil, tipsWithSpread(100), now); fired {
		t.Error("nil state must not fire")
	}
}

func TestSignal_CooldownSequence(t *testing.T) {
	sig := NewSignal(DefaultThresholds())
	state := &State{}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	steps := []struct {
		at       time.Duration
		distance float64
		want     bool
	}{
		{0, 100, false},                      // records
		{50 * time.Millisecond, 160, true},   // first event, no prior event
		{100 * time.Millisecond, 100, false}, // cooldown
		{350 * time.Millisecond, 150, false}, // 300ms since fire but not more
		{360 * time.Millisecond, 100, true},  // 310ms since fire
		{400 * time.Millisecond, 105, false}, // small delta
	}

	for i, s := range steps {
		_, fired := sig.Update(state, tipsWithSpread(s.distance), t0.Add(s.at))
		if fired != s.want {
			t.Errorf("step %d (t=%v d=%v): fired = %v, want %v", i, s.at, s.distance, fired, s.want)
		}
	}
}

func TestSignal_CustomThresholds(t *testing.T) {
	sig := NewSignal(Thresholds{ChangeThreshold: 10, MinInterval: time.Second})
	state := &State{prevDistance: 100, hasPrev: true}

	if _, fired := sig.Update(state, tipsWithSpread(115), time.Now()); !fired {
		t.Error("delta 15 should fire with a threshold of 10")
	}
	if sig.Thresholds().MinInterval != time.Second {
		t.Errorf("Thresholds() = %+v", sig.Thresholds())
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
