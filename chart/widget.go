package chart

import (
	"context"
	"image"
	"log"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/widget/material"
)

// Widget bridges a Chart into a Gio layout tree. It translates Gio pointer
// events into chart interactions, sizes the chart from the layout
// constraints, and paints the retained canvas each frame.
type Widget struct {
	chart *Chart
	src   Provider

	zoom    gesture.Scroll
	pos     f32.Point
	mods    key.Modifiers
	started bool
	cancel  func()
}

// NewWidget wraps a chart. When src is non-nil and the chart is configured
// with SubscribeOnAttach, the first Layout call starts the subscription.
func NewWidget(c *Chart, src Provider) *Widget {
	return &Widget{chart: c, src: src}
}

// Chart returns the wrapped chart.
func (w *Widget) Chart() *Chart { return w.chart }

// Stop cancels the widget-managed subscription, if one was started.
func (w *Widget) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// Layout processes this frame's input and paints the chart.
func (w *Widget) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	if !w.started && w.src != nil && w.chart.Config().SubscribeOnAttach {
		w.started = true
		w.cancel = w.chart.Subscribe(context.Background(), w.src)
	}

	w.chart.Resize(float32(gtx.Constraints.Max.X), float32(gtx.Constraints.Max.Y))

	dist := w.zoom.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Vertical, image.Rect(0, -1e6, 0, 1e6))
	if dist != 0 {
		proportion := 1 + float64(dist)/float64(gtx.Constraints.Max.Y)
		w.chart.ZoomBy(proportion, w.pos.X, w.mods)
	}

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: w,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move | pointer.Press | pointer.Drag | pointer.Release,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		w.mods = pe.Modifiers
		switch pe.Kind {
		case pointer.Press:
			w.pos = pe.Position
			w.chart.PointerPress(pe.Position)
		case pointer.Enter, pointer.Move, pointer.Drag:
			w.pos = pe.Position
			w.chart.PointerMove(pe.Position)
		case pointer.Release:
			w.chart.PointerRelease(pe.Position)
		case pointer.Leave, pointer.Cancel:
			w.chart.PointerLeave()
		}
	}

	if err := w.chart.Render(); err != nil {
		log.Printf("rendering chart: %v", err)
	}

	defer clip.Rect(image.Rectangle{Max: gtx.Constraints.Max}).Push(gtx.Ops).Pop()
	w.zoom.Add(gtx.Ops)
	event.Op(gtx.Ops, w)
	return w.chart.Canvas().Frame(gtx, th.Shaper)
}
