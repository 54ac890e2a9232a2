package chart

import (
	"image/color"
	"strconv"

	"gioui.org/f32"
	"gonum.org/v1/gonum/floats"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/lens"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// LensKind selects the magnifier geometry.
type LensKind uint8

const (
	// BarLens distorts the x coordinate only, suited to raster rows.
	BarLens LensKind = iota
	// RadialLens distorts both coordinates around the pointer.
	RadialLens
)

// Magnifier is the lens decoration. While the pointer is inside the plot
// area it distorts nearby primitives through the lens transform and draws a
// secondary ruler showing the locally magnified time scale; when the
// pointer leaves, everything snaps back to its plain scale position.
type Magnifier struct {
	kind    LensKind
	lens    lens.Transform
	lens2d  lens.Transform2D
	group   *scene.Node
	visible bool
	center  f32.Point
}

const magnifierRulerTicks = 5

var magnifierColor = color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xa0}

func newMagnifier(decor *scene.Node, kind LensKind, radius, power float64) (*Magnifier, error) {
	l, err := lens.New(radius, power)
	if err != nil {
		return nil, err
	}
	l2, err := lens.New2D(radius, power)
	if err != nil {
		return nil, err
	}
	m := &Magnifier{
		kind:   kind,
		lens:   l,
		lens2d: l2,
		group:  decor.Group("magnifier", "magnifier"),
	}
	m.group.Hidden = true
	return m, nil
}

func (m *Magnifier) move(pos f32.Point) {
	m.visible = true
	m.center = pos
}

func (m *Magnifier) hide() {
	m.visible = false
	m.group.Hidden = true
}

// render draws the lens outline and the in-lens ruler from the
// already-updated scale.
func (m *Magnifier) render(c *Chart, xa *axis.ContinuousAxis) {
	if !m.visible {
		m.group.Hidden = true
		return
	}
	m.group.Hidden = false
	margin := c.Margin()
	dims := c.Dims()
	r := float32(m.lens.Radius())

	switch m.kind {
	case BarLens:
		outline := m.group.Ensure(scene.KindRect, "lens-outline", "outline")
		outline.X, outline.Y = m.center.X-r, margin.Top
		outline.Width, outline.Height = 2*r, dims.Height
		outline.Fill = color.NRGBA{}
		outline.Stroke = magnifierColor
		outline.StrokeWidth = 1
	case RadialLens:
		outline := m.group.Ensure(scene.KindCircle, "lens-outline", "outline")
		outline.CX, outline.CY = m.center.X, m.center.Y
		outline.R = r
		outline.Fill = color.NRGBA{}
		outline.Stroke = magnifierColor
		outline.StrokeWidth = 1
	}

	// The ruler samples the time interval under the lens and draws each
	// tick at its distorted position, so tick spacing widens near the
	// center the same way the data does.
	center := float64(m.center.X)
	lo := xa.Scale.Invert(m.center.X - r)
	hi := xa.Scale.Invert(m.center.X + r)
	ticks := floats.Span(make([]float64, magnifierRulerTicks), lo, hi)

	rulerY := m.center.Y
	if m.kind == BarLens {
		rulerY = margin.Top + dims.Height/2
	}
	idx := 0
	scene.Bind(m.group, scene.KindLine, "ruler-tick", ticks,
		func(v float64) string { return idxOf(&idx) },
		func(n *scene.Node, v float64, entered bool) {
			x := float32(m.lens.At(center, float64(xa.Scale.Apply(v))).XPrime)
			n.X1, n.X2 = x, x
			n.Y1, n.Y2 = rulerY-4, rulerY+4
			n.Stroke = magnifierColor
		})
	idx = 0
	scene.Bind(m.group, scene.KindText, "ruler-label", ticks,
		func(v float64) string { return idxOf(&idx) },
		func(n *scene.Node, v float64, entered bool) {
			x := float32(m.lens.At(center, float64(xa.Scale.Apply(v))).XPrime)
			n.Text = strconv.FormatFloat(v, 'f', 1, 64)
			n.TextSize = 10
			n.Fill = magnifierColor
			n.X = x + 2
			n.Y = rulerY + 6
		})
}

// idxOf keys ruler ticks by ordinal so that reconciliation reuses the same
// nodes as the lens moves, instead of churning on changing tick values.
func idxOf(i *int) string {
	v := *i
	*i++
	return strconv.Itoa(v)
}
