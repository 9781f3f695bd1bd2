package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/pastelhands/internal/config"
	"github.com/ayusman/pastelhands/internal/detector"
	"github.com/ayusman/pastelhands/internal/store"
)

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()
	web := filepath.Join(dataDir, "web")
	if err := os.Mkdir(web, 0o755); err != nil {
		t.Fatal(err)
	}

	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	if got := findWebDir(dataDir); got != web {
		t.Errorf("findWebDir() = %q, want %q", got, web)
	}
	if got := findWebDir(filepath.Join(dataDir, "missing")); got != "" {
		t.Errorf("findWebDir() = %q, want empty", got)
	}
}

func TestLoadOverlaySettings_SeedsOnce(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	cfg := config.Default()
	cfg.ChangeThreshold = 33
	cfg.MinInterval = 900 * time.Millisecond

	got, err := loadOverlaySettings(st, cfg)
	if err != nil {
		t.Fatalf("loadOverlaySettings() error = %v", err)
	}
	if got.ChangeThreshold != 33 || got.MinIntervalMs != 900 {
		t.Errorf("seeded = %+v", got)
	}

	// Stored values win over config on later runs.
	cfg.ChangeThreshold = 99
	got, _ = loadOverlaySettings(st, cfg)
	if got.ChangeThreshold != 33 {
		t.Errorf("ChangeThreshold = %v, want stored 33", got.ChangeThreshold)
	}
}

func TestDemoHand(t *testing.T) {
	det := detector.NewMockDetector()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- demoHand(det, 640, 480)(ctx) }()

	deadline := time.Now().Add(time.Second)
	var hands []detector.Hand
	for time.Now().Before(deadline) {
		hands, _ = det.Detect(context.Background(), nil)
		if len(hands) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(hands) != 1 || !hands[0].Complete() {
		t.Fatalf("demo hand = %+v", hands)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("demo returned %v", err)
	}
}
