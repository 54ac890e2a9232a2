package chart

import (
	"image/color"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// Tooltip is the hover readout decoration. It is positioned directly from
// pointer events rather than during the render pass, since its placement
// does not depend on any scale.
type Tooltip struct {
	group *scene.Node
}

const (
	tooltipLineHeight = 16
	tooltipPad        = 6
	tooltipCharWidth  = 7
)

var (
	tooltipBg = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe0}
	tooltipFg = color.NRGBA{A: 0xff}
)

func newTooltip(decor *scene.Node) *Tooltip {
	t := &Tooltip{group: decor.Group("tooltip", "tooltip")}
	t.group.Hidden = true
	return t
}

func (t *Tooltip) show(pos f32.Point, lines []string) {
	t.group.Hidden = false

	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}
	w := float32(width*tooltipCharWidth + 2*tooltipPad)
	h := float32(len(lines)*tooltipLineHeight + 2*tooltipPad)

	bg := t.group.Ensure(scene.KindRect, "tooltip-bg", "bg")
	bg.X, bg.Y = pos.X+10, pos.Y+10
	bg.Width, bg.Height = w, h
	bg.Fill = tooltipBg
	bg.Stroke = tooltipFg
	bg.StrokeWidth = 1

	// Lines are keyed by ordinal, not by content: two handlers may produce
	// identical text and each still gets its own row.
	idx, kidx := 0, 0
	scene.Bind(t.group, scene.KindText, "tooltip-line", lines,
		func(string) string { return idxOf(&kidx) },
		func(n *scene.Node, line string, entered bool) {
			n.Text = line
			n.TextSize = 12
			n.Fill = tooltipFg
			n.X = bg.X + tooltipPad
			n.Y = bg.Y + tooltipPad + float32(idx*tooltipLineHeight)
			idx++
		})
}

func (t *Tooltip) hide() {
	t.group.Hidden = true
}
