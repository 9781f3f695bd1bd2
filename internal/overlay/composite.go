package overlay

import (
	"image"
	"io"

	"github.com/gogpu/gg"
)

// DefaultJPEGQuality is used for preview frames.
const DefaultJPEGQuality = 80

// Composite draws overlay on top of frame and returns the result.
// frame is not modified.
func Composite(frame, overlay image.Image) image.Image {
	dc := composite(frame, overlay)
	defer dc.Close()
	return dc.Image()
}

// CompositeJPEG writes frame with overlay on top as a JPEG.
func CompositeJPEG(w io.Writer, frame, overlay image.Image, quality int) error {
	dc := composite(frame, overlay)
	defer dc.Close()
	return dc.EncodeJPEG(w, quality)
}

func composite(frame, overlay image.Image) *gg.Context {
	dc := gg.NewContextForImage(frame)
	if overlay != nil {
		dc.DrawImage(gg.ImageBufFromImage(overlay), 0, 0)
	}
	return dc
}
