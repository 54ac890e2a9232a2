package scene

import (
	"image"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
)

// Frame flattens the retained tree into the frame's ops. The shaper is
// required only when the tree contains text nodes.
func (c *Canvas) Frame(gtx layout.Context, shaper *text.Shaper) layout.Dimensions {
	paintNode(gtx, shaper, c.root)
	return layout.Dimensions{Size: gtx.Constraints.Max}
}

func paintNode(gtx layout.Context, shaper *text.Shaper, n *Node) {
	if n.Hidden {
		return
	}
	if n.hasClip {
		defer clip.Rect(n.clip).Push(gtx.Ops).Pop()
	}
	switch n.kind {
	case KindGroup:
	case KindLine:
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(f32.Pt(n.X1, n.Y1))
		p.LineTo(f32.Pt(n.X2, n.Y2))
		paint.FillShape(gtx.Ops, n.Stroke, clip.Stroke{
			Path:  p.End(),
			Width: strokeWidth(n),
		}.Op())
	case KindRect:
		r := clip.Rect(image.Rect(int(n.X), int(n.Y), int(n.X+n.Width), int(n.Y+n.Height)).Canon())
		if n.Fill.A > 0 {
			paint.FillShape(gtx.Ops, n.Fill, r.Op())
		}
		if n.StrokeWidth > 0 {
			paint.FillShape(gtx.Ops, n.Stroke, clip.Stroke{
				Path:  r.Path(),
				Width: n.StrokeWidth,
			}.Op())
		}
	case KindCircle:
		e := clip.Ellipse(image.Rect(int(n.CX-n.R), int(n.CY-n.R), int(n.CX+n.R), int(n.CY+n.R)))
		if n.Fill.A > 0 {
			paint.FillShape(gtx.Ops, n.Fill, e.Op(gtx.Ops))
		}
		if n.StrokeWidth > 0 {
			paint.FillShape(gtx.Ops, n.Stroke, clip.Stroke{
				Path:  e.Path(gtx.Ops),
				Width: n.StrokeWidth,
			}.Op())
		}
	case KindPath:
		if len(n.Points) > 1 {
			var p clip.Path
			p.Begin(gtx.Ops)
			p.MoveTo(n.Points[0])
			for _, pt := range n.Points[1:] {
				p.LineTo(pt)
			}
			paint.FillShape(gtx.Ops, n.Stroke, clip.Stroke{
				Path:  p.End(),
				Width: strokeWidth(n),
			}.Op())
		}
	case KindText:
		if n.Text != "" && shaper != nil {
			size := n.TextSize
			if size == 0 {
				size = 12
			}
			macro := op.Record(gtx.Ops)
			paint.ColorOp{Color: n.Fill}.Add(gtx.Ops)
			textMaterial := macro.Stop()
			offset := op.Offset(image.Pt(int(n.X), int(n.Y))).Push(gtx.Ops)
			widget.Label{MaxLines: 1}.Layout(gtx, shaper, font.Font{}, unit.Sp(size), n.Text, textMaterial)
			offset.Pop()
		}
	}
	for _, child := range n.children {
		paintNode(gtx, shaper, child)
	}
}

func strokeWidth(n *Node) float32 {
	if n.StrokeWidth > 0 {
		return n.StrokeWidth
	}
	return 1
}
