package selection

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/submit"
)

// PointerCapturer acquires exclusive input routing for a pointer id so
// move events keep arriving even when the pointer leaves the element.
// Capture is a best-effort enhancement: a failed Capture is tolerated,
// and Release must accept an id whose capture is already gone.
type PointerCapturer interface {
	Capture(pointerID int) error
	Release(pointerID int)
}

// Painter projects ratio-space frames onto the visual boxes. The
// projection is pure: painting the same frame twice must produce the
// same visual output and no other side effect.
type Painter interface {
	// PaintRegion positions a region's box using CSS-style percentage
	// values of the video surface.
	PaintRegion(id string, leftPct, topPct, widthPct, heightPct float64)
}

// StatusSink receives the lifecycle of a submission. Started always
// pairs with exactly one of Succeeded, Empty, or Failed, so the submit
// affordance can be re-enabled once the request settles either way.
type StatusSink interface {
	SubmissionStarted()
	SubmissionSucceeded(outputs []submit.Output)
	SubmissionEmpty()
	SubmissionFailed(err error)
}

// TargetKind says what a pointer-down landed on.
type TargetKind int

const (
	// TargetNone is anything that starts no interaction.
	TargetNone TargetKind = iota
	// TargetBody is a region's draggable body.
	TargetBody
	// TargetHandle is one of a region's corner grips.
	TargetHandle
)

// Target identifies the element under a pointer-down. Hit testing is
// the embedding UI's job; it reports the outcome here.
type Target struct {
	Kind     TargetKind
	RegionID string
	Handle   region.Handle
}

// PointerEvent is a raw pointer event with coordinates in viewport
// pixels, relative to the top-left of the video surface.
type PointerEvent struct {
	PointerID int
	X         float64
	Y         float64
	Target    Target
}

// Viewport is the on-screen size of the video surface in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

func (v Viewport) valid() bool {
	return v.Width > 0 && v.Height > 0
}

// interactionKind tags the live interaction variant.
type interactionKind int

const (
	kindMoving interactionKind = iota
	kindResizing
)

// interaction is the single live interaction. It exists only between a
// pointer-down that started it and the matching pointer-up or cancel;
// nil means idle. At most one instance exists system-wide, so a second
// pointer-down during an active interaction is ignored by construction.
type interaction struct {
	kind      interactionKind
	pointerID int
	region    *region.Region
	// startFrame is the region placement at pointer-down. Both move
	// deltas and the resize anchor derive from it, never from
	// intermediate frames.
	startFrame region.Frame
	// originX/originY is the pointer-down position in viewport pixels.
	originX float64
	originY float64
	// handle is set for resizing only.
	handle region.Handle
}

// Controller owns the interaction state machine. All pointer handling
// runs synchronously on the caller's event goroutine; the only
// asynchronous path is Submit, which is fire-and-forget.
type Controller struct {
	session  *Session
	client   submit.Client
	capturer PointerCapturer
	painter  Painter
	sink     StatusSink
	logger   *slog.Logger

	viewport Viewport
	active   *interaction

	submitInFlight atomic.Bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPointerCapturer sets the pointer capture capability.
func WithPointerCapturer(c PointerCapturer) ControllerOption {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.capturer = c
		}
	}
}

// WithPainter sets the paint projection target.
func WithPainter(p Painter) ControllerOption {
	return func(ctrl *Controller) {
		if p != nil {
			ctrl.painter = p
		}
	}
}

// WithStatusSink sets the submission status receiver.
func WithStatusSink(s StatusSink) ControllerOption {
	return func(ctrl *Controller) {
		if s != nil {
			ctrl.sink = s
		}
	}
}

// NewController creates a controller for the given session and
// submission client. Capabilities default to no-ops so the controller
// is usable without any UI runtime.
func NewController(session *Session, client submit.Client, logger *slog.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session:  session,
		client:   client,
		capturer: nopCapturer{},
		painter:  nopPainter{},
		sink:     nopSink{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the controller's session.
func (c *Controller) Session() *Session {
	return c.session
}

// Active reports whether an interaction is in progress.
func (c *Controller) Active() bool {
	return c.active != nil
}

// SetViewport records the on-screen size of the video surface.
func (c *Controller) SetViewport(v Viewport) {
	c.viewport = v
}

// HandleMetadata feeds freshly known video metrics into the session and
// repaints. Safe to call whether metadata arrived by event or was
// queried synchronously; both orderings converge to the same state.
func (c *Controller) HandleMetadata(m region.Metrics) {
	c.session.SetMetrics(m)
	c.Paint()
}

// PointerDown starts an interaction when the target is a region body or
// handle. A pointer-down while any interaction is active is ignored:
// the single slot enforces mutual exclusion by construction.
func (c *Controller) PointerDown(ev PointerEvent) {
	if c.active != nil {
		c.logger.Debug("pointer-down ignored, interaction in progress",
			slog.Int("pointer_id", ev.PointerID),
		)
		return
	}

	var kind interactionKind
	switch ev.Target.Kind {
	case TargetBody:
		kind = kindMoving
	case TargetHandle:
		if !ev.Target.Handle.IsValid() {
			return
		}
		kind = kindResizing
	default:
		return
	}

	r := c.session.Region(ev.Target.RegionID)
	if r == nil {
		return
	}

	if err := c.capturer.Capture(ev.PointerID); err != nil {
		// Capture is best-effort; the interaction proceeds without it.
		c.logger.Debug("pointer capture failed",
			slog.Int("pointer_id", ev.PointerID),
			slog.String("error", err.Error()),
		)
	}

	c.active = &interaction{
		kind:       kind,
		pointerID:  ev.PointerID,
		region:     r,
		startFrame: r.Frame(),
		originX:    ev.X,
		originY:    ev.Y,
		handle:     ev.Target.Handle,
	}
}

// PointerMove advances the active interaction. Events from other
// pointers, or with no interaction active, are no-ops.
func (c *Controller) PointerMove(ev PointerEvent) {
	act := c.active
	if act == nil || act.pointerID != ev.PointerID || !c.viewport.valid() {
		return
	}

	engine := c.session.Engine()

	switch act.kind {
	case kindMoving:
		deltaLeft := (ev.X - act.originX) / c.viewport.Width
		deltaTop := (ev.Y - act.originY) / c.viewport.Height
		act.region.Apply(engine.Move(act.startFrame, deltaLeft, deltaTop))

	case kindResizing:
		m := c.session.Metrics()
		if !m.Known() {
			return
		}
		pointer := region.Point{
			X: ev.X / c.viewport.Width * float64(m.Width),
			Y: ev.Y / c.viewport.Height * float64(m.Height),
		}
		act.region.Apply(engine.Resize(act.startFrame, act.handle, pointer, m, c.session.MinWidthRatio()))
	}

	c.Paint()
}

// PointerUp finishes the active interaction. Up events from pointers
// that never started an interaction are ignored, so a stray second
// pointer cannot cancel a drag it was never part of.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.finish(ev.PointerID)
}

// PointerCancel aborts the active interaction, keeping whatever frame
// the region last reached.
func (c *Controller) PointerCancel(ev PointerEvent) {
	c.finish(ev.PointerID)
}

func (c *Controller) finish(pointerID int) {
	act := c.active
	if act == nil || act.pointerID != pointerID {
		return
	}
	// Release tolerates a capture that is already gone.
	c.capturer.Release(pointerID)
	c.active = nil
}

// Paint projects both regions onto the visual boxes. Idempotent and
// callable at any time, including before metrics are known.
func (c *Controller) Paint() {
	for _, r := range c.session.Regions() {
		f := r.Frame()
		c.painter.PaintRegion(r.ID(), f.Left*100, f.Top*100, f.Width*100, f.Height*100)
	}
}

// Submit serializes the session and posts it in the background. The
// sink hears Started immediately and exactly one settle callback later;
// a submission already in flight makes Submit a no-op. In-flight
// submissions are not abortable by new interactions.
func (c *Controller) Submit(ctx context.Context) {
	if c.client == nil {
		return
	}
	if !c.submitInFlight.CompareAndSwap(false, true) {
		c.logger.Debug("submit ignored, submission in flight")
		return
	}

	payload := c.session.Payload()
	c.sink.SubmissionStarted()

	go func() {
		defer c.submitInFlight.Store(false)

		result, err := c.client.Submit(ctx, payload)
		if err != nil {
			c.logger.Warn("submission failed",
				slog.String("error", err.Error()),
			)
			c.sink.SubmissionFailed(err)
			return
		}
		if len(result.Outputs) == 0 {
			c.sink.SubmissionEmpty()
			return
		}
		c.sink.SubmissionSucceeded(result.Outputs)
	}()
}

// SubmitInFlight reports whether a submission is currently pending.
func (c *Controller) SubmitInFlight() bool {
	return c.submitInFlight.Load()
}

type nopCapturer struct{}

func (nopCapturer) Capture(int) error { return nil }

func (nopCapturer) Release(int) {}

type nopPainter struct{}

func (nopPainter) PaintRegion(string, float64, float64, float64, float64) {}

type nopSink struct{}

func (nopSink) SubmissionStarted() {}

func (nopSink) SubmissionSucceeded([]submit.Output) {}

func (nopSink) SubmissionEmpty() {}

func (nopSink) SubmissionFailed(error) {}
