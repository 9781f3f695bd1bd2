package capture

import (
	"errors"
	"image"
	"testing"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantFPS int
	}{
		{
			name:    "zero options take defaults",
			opts:    Options{},
			wantFPS: DefaultFPS,
		},
		{
			name:    "custom fps",
			opts:    Options{Device: 1, FPS: 15},
			wantFPS: 15,
		},
		{
			name:    "negative fps falls back",
			opts:    Options{Device: 2, FPS: -1},
			wantFPS: DefaultFPS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.opts)

			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}

			// Camera should not be running initially
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
			if cam.Ready() {
				t.Error("closed camera must not be ready")
			}
			if cam.Size() != (image.Point{}) {
				t.Errorf("Size() = %v before Open", cam.Size())
			}
		})
	}
}

func TestNewCamera_IdealSize(t *testing.T) {
	cam := NewCamera(Options{}).(*cameraImpl)
	if cam.opts.Width != 1280 || cam.opts.Height != 720 {
		t.Errorf("requested %dx%d, want 1280x720", cam.opts.Width, cam.opts.Height)
	}

	cam = NewCamera(Options{Width: 640}).(*cameraImpl)
	if cam.opts.Width != 1280 || cam.opts.Height != 720 {
		t.Error("partial size should fall back to the default pair")
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{
			name:    "set to 10",
			fps:     10,
			wantFPS: 10,
		},
		{
			name:    "set to 60",
			fps:     60,
			wantFPS: 60,
		},
		{
			name:    "set to 0 should keep previous",
			fps:     0,
			wantFPS: 60,
		},
		{
			name:    "set to negative should keep previous",
			fps:     -5,
			wantFPS: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultOptions())

	err := cam.Open()
	if err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		size := cam.Size()
		if size.X != mat.Cols() || size.Y != mat.Rows() {
			t.Errorf("Size() = %v, frame is %dx%d", size, mat.Cols(), mat.Rows())
		}
		if !cam.Ready() {
			t.Error("camera with a frame should be ready")
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if cam.IsOpen() || cam.Ready() {
		t.Error("camera should be closed and not ready after Close()")
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	// Close on not opened camera should not panic and return nil
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}
