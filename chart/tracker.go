package chart

import (
	"image/color"
	"strconv"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// Tracker draws a full-height guide line at the pointer's x position with a
// floating label showing the data-space time under the pointer.
type Tracker struct {
	group   *scene.Node
	visible bool
	pos     f32.Point
}

var trackerColor = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xc0}

func newTracker(decor *scene.Node) *Tracker {
	t := &Tracker{group: decor.Group("tracker", "tracker")}
	t.group.Hidden = true
	return t
}

func (t *Tracker) move(pos f32.Point) {
	t.visible = true
	t.pos = pos
}

func (t *Tracker) hide() {
	t.visible = false
	t.group.Hidden = true
}

// render repositions the guide line and label from the already-updated
// scale.
func (t *Tracker) render(c *Chart, xa *axis.ContinuousAxis) {
	if !t.visible {
		t.group.Hidden = true
		return
	}
	t.group.Hidden = false
	m := c.Margin()
	d := c.Dims()

	line := t.group.Ensure(scene.KindLine, "tracker-line", "line")
	line.X1, line.X2 = t.pos.X, t.pos.X
	line.Y1, line.Y2 = m.Top, m.Top+d.Height
	line.Stroke = trackerColor

	label := t.group.Ensure(scene.KindText, "tracker-label", "label")
	label.Text = strconv.FormatFloat(xa.Scale.Invert(t.pos.X), 'f', 1, 64)
	label.TextSize = 12
	label.Fill = trackerColor
	label.X = t.pos.X + 4
	label.Y = t.pos.Y - 16
	if label.Y < m.Top {
		label.Y = m.Top
	}
}
