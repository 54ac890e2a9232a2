package scene

import (
	"image"

	"gioui.org/f32"
	"gioui.org/io/key"
)

// PointerKind identifies the pointer event being delivered.
type PointerKind uint8

const (
	PointerMove PointerKind = iota
	PointerPress
	PointerDrag
	PointerRelease
	PointerLeave
)

// PointerEvent is a pointer event in canvas-local pixel coordinates.
type PointerEvent struct {
	Kind      PointerKind
	Pos       f32.Point
	Scroll    float32
	Modifiers key.Modifiers
}

// Deliver routes a pointer event into the tree, synthesizing enter and leave
// callbacks on the topmost node under the pointer that carries handlers.
// Chart-level controllers receive the raw event separately; Deliver only
// manages per-primitive hover state (tooltips and highlights).
func (c *Canvas) Deliver(ev PointerEvent) {
	if ev.Kind == PointerLeave {
		c.setHovered(nil, ev)
		return
	}
	c.setHovered(c.hitTest(c.root, ev.Pos, true), ev)
}

// Hovered returns the node currently under the pointer, if any.
func (c *Canvas) Hovered() *Node { return c.hovered }

func (c *Canvas) setHovered(n *Node, ev PointerEvent) {
	if n == c.hovered {
		return
	}
	if c.hovered != nil && c.hovered.OnPointerLeave != nil {
		leave := ev
		leave.Kind = PointerLeave
		c.hovered.OnPointerLeave(leave)
	}
	c.hovered = n
	if n != nil && n.OnPointerEnter != nil {
		n.OnPointerEnter(ev)
	}
}

// hitTest returns the last (topmost-painted) node under pos that has
// handlers attached, honoring clip regions on the way down.
func (c *Canvas) hitTest(n *Node, pos f32.Point, inClip bool) *Node {
	if n.hasClip {
		inClip = image.Pt(int(pos.X), int(pos.Y)).In(n.clip)
	}
	var hit *Node
	if inClip && (n.OnPointerEnter != nil || n.OnPointerLeave != nil) {
		if b, ok := n.hitBounds(); ok && image.Pt(int(pos.X), int(pos.Y)).In(b) {
			hit = n
		}
	}
	for _, child := range n.children {
		if h := c.hitTest(child, pos, inClip); h != nil {
			hit = h
		}
	}
	return hit
}
