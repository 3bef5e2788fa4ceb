// Package region provides the crop-region model and the aspect-locked
// geometry engine. All coordinates are ratios in [0,1] relative to the
// video's natural frame, so the math is independent of on-screen scaling.
package region

import "errors"

// ErrInvalidTargetBox is returned when the configured target box has a
// non-positive dimension.
var ErrInvalidTargetBox = errors.New("region: target box dimensions must be positive")

// Sizing constants for the resize floor.
const (
	// minWidthScale derives the floor from the natural crop width.
	minWidthScale = 0.5
	// absoluteMinWidth is the global lower bound on the floor.
	absoluteMinWidth = 0.03
	// fallbackMinWidth is used while no crop width is known yet.
	fallbackMinWidth = 0.12
)

// Metrics holds the natural pixel dimensions of the source video.
// Metrics arrive asynchronously (metadata load); the zero value means
// "unknown" and every geometry operation treats it as a no-op.
type Metrics struct {
	Width  int
	Height int
}

// Known reports whether the video dimensions are available.
func (m Metrics) Known() bool {
	return m.Width > 0 && m.Height > 0
}

// Point is a position in video pixel space.
type Point struct {
	X float64
	Y float64
}

// Frame is a rectangle in ratio space: origin (Left, Top) and size
// (Width, Height), all in [0,1] relative to the video frame.
type Frame struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Handle identifies one of the four corner grips of a region.
type Handle string

// The four corner handles.
const (
	HandleTopLeft     Handle = "top-left"
	HandleTopRight    Handle = "top-right"
	HandleBottomLeft  Handle = "bottom-left"
	HandleBottomRight Handle = "bottom-right"
)

// Handles lists every corner handle in a stable order.
var Handles = []Handle{HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight}

// IsValid returns true for one of the four corner handles.
func (h Handle) IsValid() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	default:
		return false
	}
}

// orientation gives, per handle, the sign of "growing away from the
// anchor" along each axis.
func (h Handle) orientation() (sx, sy float64) {
	switch h {
	case HandleTopLeft:
		return -1, -1
	case HandleTopRight:
		return 1, -1
	case HandleBottomLeft:
		return -1, 1
	default: // HandleBottomRight
		return 1, 1
	}
}

// Config is the immutable geometry configuration threaded into the
// engine at construction. The target box is the fixed pixel pair both
// regions reset to whenever video metrics become known; it also encodes
// the locked aspect ratio.
type Config struct {
	TargetBoxWidth  float64
	TargetBoxHeight float64
}

// DefaultConfig returns the standard 1100x1000 target box.
func DefaultConfig() Config {
	return Config{TargetBoxWidth: 1100, TargetBoxHeight: 1000}
}

// AspectRatio returns the locked width/height ratio.
func (c Config) AspectRatio() float64 {
	return c.TargetBoxWidth / c.TargetBoxHeight
}

// Validate checks the target box dimensions.
func (c Config) Validate() error {
	if c.TargetBoxWidth <= 0 || c.TargetBoxHeight <= 0 {
		return ErrInvalidTargetBox
	}
	return nil
}

// Engine computes region placements. Every method is a pure function of
// its inputs; the engine holds no mutable state.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// AspectRatio returns the locked width/height ratio.
func (e *Engine) AspectRatio() float64 {
	return e.cfg.AspectRatio()
}

// FitToVideo converts the target box to ratio space for the given
// metrics. Width and height are converted independently since the pixel
// pair already encodes the aspect ratio. Each axis is capped at 1 so a
// source smaller than the target box still yields a containable frame.
// ok is false while metrics are unknown.
func (e *Engine) FitToVideo(m Metrics) (widthRatio, heightRatio float64, ok bool) {
	if !m.Known() {
		return 0, 0, false
	}
	widthRatio = clamp(e.cfg.TargetBoxWidth/float64(m.Width), 0, 1)
	heightRatio = clamp(e.cfg.TargetBoxHeight/float64(m.Height), 0, 1)
	return widthRatio, heightRatio, true
}

// MinWidthRatio derives the resize floor from the natural crop width:
// half the crop width, never below the absolute floor, never above the
// crop width itself. While no crop width is known the fallback applies.
func (e *Engine) MinWidthRatio(cropWidthRatio float64) float64 {
	if cropWidthRatio <= 0 {
		return fallbackMinWidth
	}
	v := cropWidthRatio * minWidthScale
	if v < absoluteMinWidth {
		v = absoluteMinWidth
	}
	if v > cropWidthRatio {
		v = cropWidthRatio
	}
	return v
}

// Move returns the frame translated by the given ratio-space delta,
// clamped per axis so the frame stays inside [0,1]x[0,1]. The delta is
// always measured from the frame as it was at interaction start, never
// accumulated, so repeated calls cannot drift. Size is untouched.
func (e *Engine) Move(start Frame, deltaLeft, deltaTop float64) Frame {
	next := start
	next.Left = clamp(start.Left+deltaLeft, 0, 1-start.Width)
	next.Top = clamp(start.Top+deltaTop, 0, 1-start.Height)
	return next
}

// AnchorPoint returns the pixel position of the corner that stays fixed
// while the given handle is dragged: the corner opposite the handle, on
// the frame as it was at interaction start.
func (e *Engine) AnchorPoint(start Frame, handle Handle, m Metrics) Point {
	vw := float64(m.Width)
	vh := float64(m.Height)
	sx, sy := handle.orientation()
	p := Point{X: start.Left * vw, Y: start.Top * vh}
	if sx < 0 {
		p.X += start.Width * vw
	}
	if sy < 0 {
		p.Y += start.Height * vh
	}
	return p
}

// Resize computes the frame that results from dragging a corner handle
// to the given pointer position (video pixel space), preserving the
// locked aspect ratio and full containment.
//
// The computation runs in pixel space and converts back to ratios at
// the end:
//  1. signed pixel distances from the anchor to the pointer, oriented
//     so growth away from the anchor is positive;
//  2. two candidate widths, one from the horizontal distance and one
//     from the vertical distance through the aspect ratio; the minimum
//     wins, so the box never exceeds the pointer envelope on either
//     axis;
//  3. an upper bound from the room between the anchor and the nearest
//     frame edge on each axis, again taking the minimum;
//  4. clamp to [floor, bound];
//  5. height derived from width, origin derived from the anchor;
//  6. divide by the video dimensions.
//
// Returns start unchanged while metrics are unknown.
func (e *Engine) Resize(start Frame, handle Handle, pointer Point, m Metrics, minWidthRatio float64) Frame {
	if !m.Known() || !handle.IsValid() {
		return start
	}

	vw := float64(m.Width)
	vh := float64(m.Height)
	aspect := e.cfg.AspectRatio()
	sx, sy := handle.orientation()
	anchor := e.AnchorPoint(start, handle, m)

	dx := sx * (pointer.X - anchor.X)
	dy := sy * (pointer.Y - anchor.Y)

	// The axis the pointer moved less far along limits the growth.
	width := dx
	if vertical := dy * aspect; vertical < width {
		width = vertical
	}

	// Room between the anchor and the frame edge in the growth
	// direction, per axis, converted to a width bound.
	roomX := anchor.X
	if sx > 0 {
		roomX = vw - anchor.X
	}
	roomY := anchor.Y
	if sy > 0 {
		roomY = vh - anchor.Y
	}
	bound := roomX
	if vertical := roomY * aspect; vertical < bound {
		bound = vertical
	}

	// Floor first, then the containment bound: the frame edge always
	// wins over the minimum size.
	if width < minWidthRatio*vw {
		width = minWidthRatio * vw
	}
	if width > bound {
		width = bound
	}

	height := width / aspect

	left := anchor.X
	if sx < 0 {
		left = anchor.X - width
	}
	top := anchor.Y
	if sy < 0 {
		top = anchor.Y - height
	}

	return Frame{
		Left:   left / vw,
		Top:    top / vh,
		Width:  width / vw,
		Height: height / vh,
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
