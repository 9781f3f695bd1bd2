// Package overlay draws fingertip dots and connecting lines over a video frame.
package overlay

import (
	"github.com/gogpu/gg"
	"github.com/pkg/errors"

	"github.com/ayusman/pastelhands/internal/detector"
	"github.com/ayusman/pastelhands/internal/gesture"
)

// Reference overlay styling.
const (
	DefaultDotRadius = 8.0
	DefaultLineWidth = 2.0
	DefaultLineColor = "#FFFFFF"
)

// ErrInvalidSize is returned when asked to render into an empty frame.
var ErrInvalidSize = errors.New("invalid overlay size")

// Surface is the 2D drawing surface the overlay is rendered on.
// *gg.Context satisfies it.
type Surface interface {
	Resize(width, height int) error
	Clear()
	SetHexColor(hex string)
	SetLineWidth(width float64)
	DrawCircle(x, y, r float64)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Fill() error
	Stroke() error
}

var _ Surface = (*gg.Context)(nil)

// Style holds the fixed drawing parameters. The dot color is not part of
// it; dots follow the gesture color while lines keep LineColor.
type Style struct {
	DotRadius float64 `json:"dot_radius"`
	LineWidth float64 `json:"line_width"`
	LineColor string  `json:"line_color"`
}

// DefaultStyle returns the reference styling: 8px dots, 2px white lines.
func DefaultStyle() Style {
	return Style{
		DotRadius: DefaultDotRadius,
		LineWidth: DefaultLineWidth,
		LineColor: DefaultLineColor,
	}
}

// Renderer redraws the overlay from scratch every frame.
type Renderer struct {
	style Style
}

// NewRenderer creates a Renderer. Zero style fields fall back to the defaults.
func NewRenderer(style Style) *Renderer {
	def := DefaultStyle()
	if style.DotRadius <= 0 {
		style.DotRadius = def.DotRadius
	}
	if style.LineWidth <= 0 {
		style.LineWidth = def.LineWidth
	}
	if style.LineColor == "" {
		style.LineColor = def.LineColor
	}
	return &Renderer{style: style}
}

// Style returns the renderer's style.
func (r *Renderer) Style() Style {
	return r.style
}

// NewSurface creates a software surface of the given size.
func NewSurface(width, height int) *gg.Context {
	return gg.NewContext(width, height)
}

// Render sizes the surface to the frame, clears it, then draws each
// fingertip set: a filled dot per tip in col and one polyline through the
// tips in order.
func (r *Renderer) Render(s Surface, width, height int, sets [][]detector.Keypoint, col gesture.Color) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidSize, "%dx%d", width, height)
	}

	// The source can change size between frames (rotation, renegotiation).
	if err := s.Resize(width, height); err != nil {
		return errors.Wrap(err, "resize surface")
	}
	s.Clear()

	for _, tips := range sets {
		if len(tips) == 0 {
			continue
		}

		s.SetHexColor(col.Hex)
		for _, p := range tips {
			s.DrawCircle(p.X, p.Y, r.style.DotRadius)
			if err := s.Fill(); err != nil {
				return errors.Wrap(err, "fill dot")
			}
		}

		if len(tips) < 2 {
			continue
		}
		s.SetHexColor(r.style.LineColor)
		s.SetLineWidth(r.style.LineWidth)
		s.MoveTo(tips[0].X, tips[0].Y)
		for _, p := range tips[1:] {
			s.LineTo(p.X, p.Y)
		}
		if err := s.Stroke(); err != nil {
			return errors.Wrap(err, "stroke fingertip line")
		}
	}

	return nil
}
