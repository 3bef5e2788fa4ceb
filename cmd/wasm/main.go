//go:build js && wasm

// WASM binding that wires the selection controller to DOM pointer
// events. The page registers raw event data through the global
// speakersplitEngine object; painting and pointer capture go back out
// through the same DOM elements.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/selection"
	"github.com/speakersplit/speakersplit/internal/submit"
)

var controller *selection.Controller

func main() {
	engine, err := region.NewEngine(region.DefaultConfig())
	if err != nil {
		panic(err)
	}

	origin := js.Global().Get("location").Get("origin").String()
	client, err := submit.NewClient(origin)
	if err != nil {
		panic(err)
	}

	session := selection.NewSession(engine)
	controller = selection.NewController(session, client, slog.Default(),
		selection.WithPointerCapturer(&domCapturer{}),
		selection.WithPainter(&domPainter{}),
		selection.WithStatusSink(&domSink{}),
	)

	api := js.Global().Get("Object").New()
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("metadataLoaded", js.FuncOf(metadataLoaded))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("pointerCancel", js.FuncOf(pointerCancel))
	api.Set("paint", js.FuncOf(paint))
	api.Set("submitRegions", js.FuncOf(submitRegions))

	js.Global().Set("speakersplitEngine", api)
	js.Global().Set("speakersplitWasmReady", js.ValueOf(true))

	// Keep the Go runtime alive
	select {}
}

// setViewport records the on-screen size of the video surface:
// (width, height) in CSS pixels.
func setViewport(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	controller.SetViewport(selection.Viewport{
		Width:  args[0].Float(),
		Height: args[1].Float(),
	})
	return nil
}

// metadataLoaded feeds the natural video dimensions into the session:
// (videoWidth, videoHeight).
func metadataLoaded(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	controller.HandleMetadata(region.Metrics{
		Width:  args[0].Int(),
		Height: args[1].Int(),
	})
	return nil
}

// pointerDown starts an interaction:
// (pointerId, x, y, targetKind, regionId, handle) where targetKind is
// "body" or "handle" and handle names a corner for handle targets.
func pointerDown(_ js.Value, args []js.Value) any {
	if len(args) < 6 {
		return nil
	}
	target := selection.Target{RegionID: args[4].String()}
	switch args[3].String() {
	case "body":
		target.Kind = selection.TargetBody
	case "handle":
		target.Kind = selection.TargetHandle
		target.Handle = region.Handle(args[5].String())
	default:
		return nil
	}
	controller.PointerDown(selection.PointerEvent{
		PointerID: args[0].Int(),
		X:         args[1].Float(),
		Y:         args[2].Float(),
		Target:    target,
	})
	return nil
}

// pointerMove advances the active interaction: (pointerId, x, y).
func pointerMove(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return nil
	}
	controller.PointerMove(selection.PointerEvent{
		PointerID: args[0].Int(),
		X:         args[1].Float(),
		Y:         args[2].Float(),
	})
	return nil
}

// pointerUp finishes the active interaction: (pointerId).
func pointerUp(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	controller.PointerUp(selection.PointerEvent{PointerID: args[0].Int()})
	return nil
}

// pointerCancel aborts the active interaction: (pointerId).
func pointerCancel(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	controller.PointerCancel(selection.PointerEvent{PointerID: args[0].Int()})
	return nil
}

// paint reprojects both regions onto their boxes.
func paint(_ js.Value, _ []js.Value) any {
	controller.Paint()
	return nil
}

// submitRegions posts the current regions for processing.
func submitRegions(_ js.Value, _ []js.Value) any {
	controller.Submit(context.Background())
	return nil
}

// domCapturer routes pointer capture to the selection overlay element.
type domCapturer struct{}

func (domCapturer) overlay() js.Value {
	return js.Global().Get("document").Call("getElementById", "selection-overlay")
}

func (c domCapturer) Capture(pointerID int) error {
	el := c.overlay()
	if el.IsNull() || el.IsUndefined() {
		return errors.New("selection overlay not found")
	}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("setPointerCapture: %v", r)
			}
		}()
		el.Call("setPointerCapture", pointerID)
	}()
	return err
}

// Release tolerates a capture that is already gone; the DOM throws for
// unknown pointer ids and the recover swallows it.
func (c domCapturer) Release(pointerID int) {
	el := c.overlay()
	if el.IsNull() || el.IsUndefined() {
		return
	}
	defer func() { _ = recover() }()
	el.Call("releasePointerCapture", pointerID)
}

// domPainter positions the region boxes by id using percentage styles.
type domPainter struct{}

func (domPainter) PaintRegion(id string, leftPct, topPct, widthPct, heightPct float64) {
	el := js.Global().Get("document").Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return
	}
	style := el.Get("style")
	style.Set("left", fmt.Sprintf("%.4f%%", leftPct))
	style.Set("top", fmt.Sprintf("%.4f%%", topPct))
	style.Set("width", fmt.Sprintf("%.4f%%", widthPct))
	style.Set("height", fmt.Sprintf("%.4f%%", heightPct))
}

// domSink reflects submission state on the status line and the submit
// button. The button is re-enabled whenever a submission settles.
type domSink struct{}

func (domSink) statusEl() js.Value {
	return js.Global().Get("document").Call("getElementById", "status")
}

func (domSink) submitButton() js.Value {
	return js.Global().Get("document").Call("getElementById", "submit")
}

func (s domSink) setStatus(text string) {
	if el := s.statusEl(); !el.IsNull() && !el.IsUndefined() {
		el.Set("textContent", text)
	}
}

func (s domSink) setSubmitEnabled(enabled bool) {
	if el := s.submitButton(); !el.IsNull() && !el.IsUndefined() {
		el.Set("disabled", !enabled)
	}
}

func (s domSink) SubmissionStarted() {
	s.setSubmitEnabled(false)
	s.setStatus("Processing…")
}

func (s domSink) SubmissionSucceeded(outputs []submit.Output) {
	s.setSubmitEnabled(true)
	s.setStatus(fmt.Sprintf("Done: %d clips ready", len(outputs)))

	list := js.Global().Get("document").Call("getElementById", "downloads")
	if list.IsNull() || list.IsUndefined() {
		return
	}
	list.Set("innerHTML", "")
	doc := js.Global().Get("document")
	for _, out := range outputs {
		item := doc.Call("createElement", "li")
		link := doc.Call("createElement", "a")
		link.Set("href", out.URL)
		link.Set("textContent", fmt.Sprintf("%s (%dx%d)", out.Label, out.Crop.Width, out.Crop.Height))
		item.Call("appendChild", link)
		list.Call("appendChild", item)
	}
}

func (s domSink) SubmissionEmpty() {
	s.setSubmitEnabled(true)
	s.setStatus("No outputs were generated")
}

func (s domSink) SubmissionFailed(err error) {
	s.setSubmitEnabled(true)
	s.setStatus("Processing failed: " + err.Error())
}
