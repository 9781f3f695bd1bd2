// Package config loads runtime settings from flags, the environment and an
// optional .env file.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/ayusman/pastelhands/internal/detector"
	"github.com/ayusman/pastelhands/internal/gesture"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "PASTELHANDS_"

// Facing modes understood by the camera.
const (
	FacingUser        = "user"
	FacingEnvironment = "environment"
)

// Config is the complete process configuration.
type Config struct {
	Addr    string
	DataDir string
	WebDir  string

	Device     int
	FacingMode string
	Width      int
	Height     int
	RefreshHz  int
	Mock       bool

	Detector detector.Config

	ChangeThreshold float64
	MinInterval     time.Duration
	SharedSlot      bool

	HookTimeout time.Duration
	HookQueue   int

	LogLevel string
	LogJSON  bool
	Tray     bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DataDir:         defaultDataDir(),
		FacingMode:      FacingUser,
		Width:           1280,
		Height:          720,
		RefreshHz:       60,
		Detector:        detector.DefaultConfig(),
		ChangeThreshold: gesture.DefaultChangeThreshold,
		MinInterval:     gesture.DefaultMinInterval,
		HookTimeout:     5 * time.Second,
		HookQueue:       16,
		LogLevel:        "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pastelhands"
	}
	return filepath.Join(home, ".pastelhands")
}

// LoadDotEnv reads path into the process environment. Variables already set
// win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "load %s", path)
}

// Load builds a Config from defaults, then the environment, then args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	c := Default()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "http listen address")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for the settings database")
	fs.StringVar(&c.WebDir, "web-dir", c.WebDir, "static web directory (searched when empty)")
	fs.IntVar(&c.Device, "device", c.Device, "camera device index for the user-facing camera")
	fs.StringVar(&c.FacingMode, "facing", c.FacingMode, "camera facing mode: user or environment")
	fs.IntVar(&c.Width, "width", c.Width, "ideal capture width")
	fs.IntVar(&c.Height, "height", c.Height, "ideal capture height")
	fs.IntVar(&c.RefreshHz, "refresh-hz", c.RefreshHz, "frame loop rate")
	fs.BoolVar(&c.Mock, "mock", c.Mock, "use a synthetic camera and detector")
	fs.StringVar(&c.Detector.ModelType, "model", c.Detector.ModelType, "landmark model: lite or full")
	fs.StringVar(&c.Detector.Runtime, "runtime", c.Detector.Runtime, "interpreter hosting the landmark service")
	fs.StringVar(&c.Detector.SolutionPath, "solution-path", c.Detector.SolutionPath, "landmark model asset directory")
	fs.IntVar(&c.Detector.MaxHands, "max-hands", c.Detector.MaxHands, "maximum hands per frame")
	fs.Float64Var(&c.Detector.MinConfidence, "min-confidence", c.Detector.MinConfidence, "minimum detection confidence")
	fs.Float64Var(&c.Detector.MinTrackingConf, "min-tracking-confidence", c.Detector.MinTrackingConf, "minimum tracking confidence")
	fs.Float64Var(&c.ChangeThreshold, "change-threshold", c.ChangeThreshold, "spread change in pixels that triggers a color change")
	fs.DurationVar(&c.MinInterval, "min-interval", c.MinInterval, "minimum time between color changes")
	fs.BoolVar(&c.SharedSlot, "shared-slot", c.SharedSlot, "share one gesture state across all hands")
	fs.DurationVar(&c.HookTimeout, "hook-timeout", c.HookTimeout, "timeout for color change hooks")
	fs.IntVar(&c.HookQueue, "hook-queue", c.HookQueue, "pending color change hooks before dropping")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "log as JSON")
	fs.BoolVar(&c.Tray, "tray", c.Tray, "show the system tray menu")
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			f, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Addr)
	str("DATA_DIR", &c.DataDir)
	str("WEB_DIR", &c.WebDir)
	num("DEVICE", &c.Device)
	str("FACING", &c.FacingMode)
	num("WIDTH", &c.Width)
	num("HEIGHT", &c.Height)
	num("REFRESH_HZ", &c.RefreshHz)
	boolean("MOCK", &c.Mock)
	str("MODEL", &c.Detector.ModelType)
	str("RUNTIME", &c.Detector.Runtime)
	str("SOLUTION_PATH", &c.Detector.SolutionPath)
	num("MAX_HANDS", &c.Detector.MaxHands)
	float("MIN_CONFIDENCE", &c.Detector.MinConfidence)
	float("MIN_TRACKING_CONFIDENCE", &c.Detector.MinTrackingConf)
	float("CHANGE_THRESHOLD", &c.ChangeThreshold)
	duration("MIN_INTERVAL", &c.MinInterval)
	boolean("SHARED_SLOT", &c.SharedSlot)
	duration("HOOK_TIMEOUT", &c.HookTimeout)
	num("HOOK_QUEUE", &c.HookQueue)
	str("LOG_LEVEL", &c.LogLevel)
	boolean("LOG_JSON", &c.LogJSON)
	boolean("TRAY", &c.Tray)

	return err
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.FacingMode != FacingUser && c.FacingMode != FacingEnvironment {
		return errors.Errorf("invalid facing mode %q", c.FacingMode)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid capture size %dx%d", c.Width, c.Height)
	}
	if c.RefreshHz <= 0 || c.RefreshHz > 240 {
		return errors.Errorf("refresh rate %d out of range", c.RefreshHz)
	}
	if c.ChangeThreshold <= 0 {
		return errors.Errorf("change threshold must be positive, got %f", c.ChangeThreshold)
	}
	if c.MinInterval < 0 {
		return errors.Errorf("negative min interval %s", c.MinInterval)
	}
	if c.HookTimeout <= 0 {
		return errors.Errorf("hook timeout must be positive, got %s", c.HookTimeout)
	}
	if c.HookQueue <= 0 {
		return errors.Errorf("hook queue must be positive, got %d", c.HookQueue)
	}
	return errors.Wrap(c.Detector.Validate(), "detector")
}

// Thresholds returns the gesture thresholds configured here.
func (c *Config) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{
		ChangeThreshold: c.ChangeThreshold,
		MinInterval:     c.MinInterval,
	}
}

// TrackerConfig returns the hand tracker configuration.
func (c *Config) TrackerConfig() gesture.TrackerConfig {
	tc := gesture.DefaultTrackerConfig()
	tc.Shared = c.SharedSlot
	tc.MaxSlots = c.Detector.MaxHands
	return tc
}

// DeviceIndex maps the facing mode to a camera index. The environment
// facing camera is assumed to be the next device after the user-facing one.
func (c *Config) DeviceIndex() int {
	if c.FacingMode == FacingEnvironment {
		return c.Device + 1
	}
	return c.Device
}

// FrameInterval is the time between frame loop cycles.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.RefreshHz)
}

// DBPath is the settings database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pastelhands.db")
}
