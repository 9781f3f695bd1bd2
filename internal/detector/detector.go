package detector

import (
	"context"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Model variants understood by the landmark service.
const (
	ModelLite = "lite"
	ModelFull = "full"
)

// Detector defines the interface for hand landmark sources.
type Detector interface {
	// Detect analyzes a video frame and returns the hands found in it, with
	// keypoints in the frame's pixel space. Returns an empty slice if no
	// hands are detected. The call may block on off-process inference.
	Detect(ctx context.Context, frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// ModelType selects the model variant, ModelLite or ModelFull.
	ModelType string

	// Runtime is the interpreter that hosts the landmark service.
	// Empty means a virtualenv python if one is found, else python3.
	Runtime string

	// SolutionPath is where the service loads model assets from.
	// Empty lets the service use its bundled models.
	SolutionPath string

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelType:       ModelLite,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Validate reports the first invalid field in c.
func (c Config) Validate() error {
	switch c.ModelType {
	case ModelLite, ModelFull:
	default:
		return errors.Errorf("unknown model type %q", c.ModelType)
	}
	if c.MaxHands <= 0 {
		return errors.Errorf("max hands must be positive, got %d", c.MaxHands)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.Errorf("min confidence must be between 0 and 1, got %f", c.MinConfidence)
	}
	if c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		return errors.Errorf("min tracking confidence must be between 0 and 1, got %f", c.MinTrackingConf)
	}
	return nil
}
