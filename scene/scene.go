// Package scene provides a small retained scene graph for chart primitives.
//
// Gio is immediate-mode: every frame is rebuilt from scratch. The chart
// render engine instead wants persistent primitives that it can reconcile
// against streaming data (create nodes for new points, move existing ones,
// drop departed ones) without re-describing the whole plot per data tick.
// This package holds that persistent tree and flattens it into Gio ops once
// per frame.
package scene

import (
	"image"
	"image/color"

	"gioui.org/f32"
)

// Kind identifies the primitive a node draws.
type Kind uint8

const (
	KindGroup Kind = iota
	KindLine
	KindRect
	KindCircle
	KindPath
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindLine:
		return "line"
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindPath:
		return "path"
	case KindText:
		return "text"
	default:
		return "?"
	}
}

// Attrs holds the drawable attributes of a node. Which fields are meaningful
// depends on the node's kind; unused fields are ignored by the painter.
type Attrs struct {
	// Line endpoints.
	X1, Y1, X2, Y2 float32
	// Rect origin and size; also the anchor for text.
	X, Y, Width, Height float32
	// Circle center and radius.
	CX, CY, R float32
	// Path vertices, drawn as an open polyline.
	Points []f32.Point

	Stroke      color.NRGBA
	StrokeWidth float32
	Fill        color.NRGBA

	Text     string
	TextSize float32

	Hidden bool
}

// Handlers are invoked by pointer dispatch when the pointer crosses into or
// out of a node's hit bounds.
type Handlers struct {
	OnPointerEnter func(PointerEvent)
	OnPointerLeave func(PointerEvent)
}

// Node is one element of the retained tree. Nodes are created through their
// parent (see Group, Ensure, and Bind) so that the tree stays consistent.
type Node struct {
	Attrs
	Handlers

	kind     Kind
	class    string
	key      string
	parent   *Node
	children []*Node

	clip    image.Rectangle
	hasClip bool
}

// Kind reports the node's primitive kind.
func (n *Node) Kind() Kind { return n.kind }

// Key reports the node's bind key, empty for unkeyed nodes.
func (n *Node) Key() string { return n.key }

// Class reports the node's bind class, empty for unkeyed nodes.
func (n *Node) Class() string { return n.class }

// Children returns the node's children in paint order. The returned slice is
// owned by the node and must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Group finds the child group with the given class and key, creating it if
// necessary. Groups are the stable attachment points plots and axes render
// into.
func (n *Node) Group(class, key string) *Node {
	return n.Ensure(KindGroup, class, key)
}

// Ensure finds the child with the given kind, class, and key, creating it if
// no such child exists.
func (n *Node) Ensure(kind Kind, class, key string) *Node {
	for _, c := range n.children {
		if c.kind == kind && c.class == class && c.key == key {
			return c
		}
	}
	c := &Node{kind: kind, class: class, key: key, parent: n}
	n.children = append(n.children, c)
	return c
}

// Remove detaches the node from its parent. Removing the root is a no-op.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			n.parent = nil
			return
		}
	}
}

// Clear removes all children of the node.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = n.children[:0]
}

// SetClip constrains painting and hit-testing of the node and its children to
// the given pixel rectangle.
func (n *Node) SetClip(r image.Rectangle) {
	n.clip = r
	n.hasClip = true
}

// ClearClip removes the node's clip region.
func (n *Node) ClearClip() {
	n.hasClip = false
}

// Clip returns the node's clip region, if any.
func (n *Node) Clip() (image.Rectangle, bool) {
	return n.clip, n.hasClip
}

// hitBounds computes the node's own pointer-sensitive rectangle. Groups and
// hidden nodes have no bounds of their own.
func (n *Node) hitBounds() (image.Rectangle, bool) {
	if n.Hidden {
		return image.Rectangle{}, false
	}
	const slop = 2
	switch n.kind {
	case KindLine:
		r := image.Rect(int(n.X1), int(n.Y1), int(n.X2), int(n.Y2)).Canon()
		return r.Inset(-slop), true
	case KindRect:
		return image.Rect(int(n.X), int(n.Y), int(n.X+n.Width), int(n.Y+n.Height)).Canon(), true
	case KindCircle:
		return image.Rect(int(n.CX-n.R), int(n.CY-n.R), int(n.CX+n.R), int(n.CY+n.R)), true
	case KindPath:
		if len(n.Points) == 0 {
			return image.Rectangle{}, false
		}
		r := image.Rectangle{
			Min: image.Pt(int(n.Points[0].X), int(n.Points[0].Y)),
			Max: image.Pt(int(n.Points[0].X), int(n.Points[0].Y)),
		}
		for _, p := range n.Points[1:] {
			r = r.Union(image.Rect(int(p.X), int(p.Y), int(p.X), int(p.Y)))
		}
		return r.Inset(-slop), true
	default:
		return image.Rectangle{}, false
	}
}

// Canvas owns a retained tree and dispatches pointer events into it.
type Canvas struct {
	root    *Node
	hovered *Node
}

// NewCanvas returns a canvas with an empty root group.
func NewCanvas() *Canvas {
	return &Canvas{root: &Node{kind: KindGroup}}
}

// Root returns the root group of the canvas.
func (c *Canvas) Root() *Node { return c.root }

// CountNodes reports the number of nodes in the subtree rooted at n,
// including n itself.
func CountNodes(n *Node) int {
	total := 1
	for _, c := range n.children {
		total += CountNodes(c)
	}
	return total
}

// Walk visits every node in the subtree rooted at n in paint order.
func Walk(n *Node, visit func(*Node)) {
	visit(n)
	for _, c := range n.children {
		Walk(c, visit)
	}
}
