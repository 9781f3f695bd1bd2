package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/pastelhands/internal/app"
	"github.com/ayusman/pastelhands/internal/capture"
	"github.com/ayusman/pastelhands/internal/config"
	"github.com/ayusman/pastelhands/internal/detector"
	"github.com/ayusman/pastelhands/internal/hook"
	"github.com/ayusman/pastelhands/internal/logger"
	"github.com/ayusman/pastelhands/internal/server"
	"github.com/ayusman/pastelhands/internal/store"
	"github.com/ayusman/pastelhands/internal/tray"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("pastelhands exited")
	}
}

func run(args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(flag.NewFlagSet("pastelhands", flag.ExitOnError), args)
	if err != nil {
		return err
	}

	log := logrus.NewEntry(logger.New(cfg.LogLevel, cfg.LogJSON))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogEntry(ctx, log)

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := loadOverlaySettings(st, cfg)
	if err != nil {
		return err
	}

	camera, det, demo, err := newSource(cfg, log)
	if err != nil {
		return err
	}

	a, err := app.New(app.Config{
		Camera:        camera,
		Detector:      det,
		Thresholds:    settings.Thresholds(),
		Tracker:       cfg.TrackerConfig(),
		Style:         settings.Style(),
		FrameInterval: cfg.FrameInterval(),
		Log:           log,
	})
	if err != nil {
		return err
	}

	dispatcher := hook.NewDispatcher(st.Hooks(), hook.NewExecutor(cfg.HookTimeout), cfg.HookQueue)
	a.OnColorChange(func(c app.ColorChange) {
		log.WithFields(logrus.Fields{
			"session": c.SessionID,
			"from":    c.Previous.Name,
			"to":      c.Color.Name,
		}).Info("color changed")

		if !dispatcher.Enqueue(hook.Payload{
			SessionID: c.SessionID,
			Previous:  c.Previous,
			Color:     c.Color,
			At:        c.At,
		}) {
			log.Warn("hook queue full, color change dropped")
		}
	})

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)

	if err := a.Start(gctx); err != nil {
		return err
	}
	defer a.Stop()

	g.Go(func() error { return srv.Serve(gctx, cfg.Addr) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	if demo != nil {
		g.Go(func() error { return demo(gctx) })
	}

	if cfg.Tray {
		tr := tray.New()
		tr.OnToggle(a.SetEnabled)
		tr.OnPreview(func() {
			log.WithField("url", "http://localhost"+cfg.Addr+"/api/stream").Info("preview")
		})
		tr.OnQuit(stop)
		a.OnColorChange(func(c app.ColorChange) { tr.SetColor(c.Color) })

		g.Go(func() error {
			<-gctx.Done()
			tr.Quit()
			return nil
		})

		// The tray owns the main goroutine until it quits.
		tr.Run()
		stop()
	}

	err = g.Wait()
	executed, failed, dropped := dispatcher.Stats()
	log.WithFields(logrus.Fields{
		"hooks_executed": executed,
		"hooks_failed":   failed,
		"hooks_dropped":  dropped,
	}).Info("shutting down")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadOverlaySettings seeds the store from cfg on first run, then returns
// what is stored. Later changes come through the settings API.
func loadOverlaySettings(st *store.Store, cfg *config.Config) (store.OverlaySettings, error) {
	if _, err := st.Settings().Get(store.KeyChangeThreshold); errors.Is(err, store.ErrNotFound) {
		seed := store.DefaultOverlaySettings()
		seed.ChangeThreshold = cfg.ChangeThreshold
		seed.MinIntervalMs = int(cfg.MinInterval.Milliseconds())
		if err := st.Settings().SaveOverlay(seed); err != nil {
			return store.OverlaySettings{}, err
		}
	} else if err != nil {
		return store.OverlaySettings{}, err
	}
	return st.Settings().Overlay()
}

// newSource opens the frame source. With cfg.Mock, or when the landmark
// service is missing, a synthetic detector stands in; demo then animates
// its hand.
func newSource(cfg *config.Config, log *logrus.Entry) (capture.Camera, detector.Detector, func(context.Context) error, error) {
	if cfg.Mock {
		cam := capture.NewMockCamera([]*gocv.Mat{capture.BlankFrame(cfg.Width, cfg.Height)}, true)
		det := detector.NewMockDetector()
		return cam, det, demoHand(det, cfg.Width, cfg.Height), nil
	}

	cam := capture.NewCamera(capture.Options{
		Device: cfg.DeviceIndex(),
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    capture.DefaultFPS,
	})

	det, err := detector.NewMediaPipeDetector(cfg.Detector)
	if errors.Is(err, detector.ErrServiceNotFound) {
		log.WithError(err).Warn("landmark service missing, running without hand detection")
		return cam, detector.NewMockDetector(), nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return cam, det, nil, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
