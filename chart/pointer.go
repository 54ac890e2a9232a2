package chart

import (
	"gioui.org/f32"
	"gioui.org/io/key"

	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// PointerPress begins a pan drag when the press lands inside the plot area.
func (c *Chart) PointerPress(pos f32.Point) {
	c.canvas.Deliver(scene.PointerEvent{Kind: scene.PointerPress, Pos: pos})
	if !c.InPlotArea(pos) {
		return
	}
	c.mu.Lock()
	c.dragging = true
	c.lastDrag = pos
	c.mu.Unlock()
}

// PointerMove routes a move through the canvas for hover dispatch, advances
// any active pan drag, and repositions the active decoration. Decorations
// only follow the pointer inside the plot area; outside it they hide.
func (c *Chart) PointerMove(pos f32.Point) {
	c.mu.Lock()
	dragging := c.dragging
	last := c.lastDrag
	if dragging {
		c.lastDrag = pos
	}
	c.mu.Unlock()

	kind := scene.PointerMove
	if dragging {
		kind = scene.PointerDrag
	}
	c.canvas.Deliver(scene.PointerEvent{Kind: kind, Pos: pos})

	if dragging {
		c.PanBy(pos.X - last.X)
	}

	inside := c.InPlotArea(pos)
	switch c.Mode() {
	case ModeTracker:
		if inside {
			c.tracker.move(pos)
		} else {
			c.tracker.hide()
		}
		c.requestRender()
	case ModeMagnifier:
		if inside {
			c.magnifier.move(pos)
		} else {
			c.magnifier.hide()
		}
		c.requestRender()
	}
}

// PointerRelease ends any active pan drag.
func (c *Chart) PointerRelease(pos f32.Point) {
	c.canvas.Deliver(scene.PointerEvent{Kind: scene.PointerRelease, Pos: pos})
	c.mu.Lock()
	c.dragging = false
	c.mu.Unlock()
}

// PointerLeave clears hover state and hides whichever decoration is active.
func (c *Chart) PointerLeave() {
	c.canvas.Deliver(scene.PointerEvent{Kind: scene.PointerLeave})
	c.mu.Lock()
	c.dragging = false
	c.mu.Unlock()
	switch c.Mode() {
	case ModeTooltip:
		c.tooltip.hide()
	case ModeTracker:
		c.tracker.hide()
	case ModeMagnifier:
		c.magnifier.hide()
	}
	c.requestRender()
}

// PointerScroll zooms around the pointer. Scroll deltas are converted to a
// multiplicative zoom so that equal wheel travel gives equal zoom ratio
// regardless of the current level.
func (c *Chart) PointerScroll(pos f32.Point, delta float32, mods key.Modifiers) {
	if !c.InPlotArea(pos) {
		return
	}
	proportion := 1 + float64(delta)/100
	if proportion < 0.5 {
		proportion = 0.5
	} else if proportion > 2 {
		proportion = 2
	}
	c.ZoomBy(proportion, pos.X, mods)
}
