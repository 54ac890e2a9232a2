package chart

import (
	"fmt"
	"strconv"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// RasterPlot draws each series as a row of vertical spike marks, one band
// per series, the usual rendering for neural spike trains. It requires a
// continuous x axis and a categorical y axis.
type RasterPlot struct {
	name  string
	group *scene.Node
	// SpikeHeightFrac is the fraction of the band height a spike occupies.
	SpikeHeightFrac float32
}

// NewRasterPlot attaches a raster plot to the chart.
func NewRasterPlot(c *Chart, name string) *RasterPlot {
	p := &RasterPlot{
		name:            name,
		group:           c.PlotArea().Group("raster", name),
		SpikeHeightFrac: 0.8,
	}
	c.AddPlot(p)
	return p
}

func (p *RasterPlot) Name() string { return p.name }

// Render reconciles spike primitives against the store for the current time
// range. Filtered-out series have their primitives removed while their data
// stays in the store; category bands keep the size derived from the
// unfiltered series count.
func (p *RasterPlot) Render(c *Chart) error {
	names := c.Store().Names()
	visible := names[:0:0]
	for _, name := range names {
		if c.SeriesVisible(name) {
			visible = append(visible, name)
		}
	}

	var ya *axis.CategoryAxis
	for _, name := range names {
		_, yID := c.axisIDsFor(name)
		ax := c.Axis(yID)
		if ax == nil {
			continue
		}
		cat, ok := ax.(*axis.CategoryAxis)
		if !ok {
			return fmt.Errorf("raster plot requires y-axis of category type; axis %q is continuous", yID)
		}
		ya = cat
		break
	}
	if ya != nil {
		ya.Update(visible, len(names), c.Dims(), c.Margin())
	}

	for _, name := range names {
		grp := p.group.Group("series", name)
		if !c.SeriesVisible(name) || ya == nil {
			// Projection, not deletion: drop the primitives, keep the data.
			p.bindSpikes(c, grp, name, nil, 0, 0)
			continue
		}
		xa, err := c.XAxisFor("raster", name)
		if err != nil {
			return err
		}
		if xa == nil {
			continue
		}
		rng, ok := c.TimeRange(xa.ID())
		if !ok {
			continue
		}
		data := c.Store().SelectInRange(name, rng.Start, rng.End)
		top, ok := ya.Scale.Band(name)
		if !ok {
			p.bindSpikes(c, grp, name, nil, 0, 0)
			continue
		}
		height := ya.Scale.CategorySize * p.SpikeHeightFrac
		pad := (ya.Scale.CategorySize - height) / 2
		p.bindSpikesScaled(c, grp, name, data, xa, top+pad, height)
	}
	return nil
}

func (p *RasterPlot) bindSpikes(c *Chart, grp *scene.Node, name string, data []Datum, top, height float32) {
	scene.Bind(grp, scene.KindLine, "spike", data, spikeKey,
		func(n *scene.Node, d Datum, entered bool) {})
}

func (p *RasterPlot) bindSpikesScaled(c *Chart, grp *scene.Node, name string, data []Datum, xa *axis.ContinuousAxis, top, height float32) {
	style := c.StyleFor(name)
	magnify := c.barLens()
	scene.Bind(grp, scene.KindLine, "spike", data, spikeKey,
		func(n *scene.Node, d Datum, entered bool) {
			x := xa.Scale.Apply(d.Time)
			x = magnify(x)
			n.X1, n.X2 = x, x
			n.Y1, n.Y2 = top, top+height
			n.Stroke = style.Stroke
			n.StrokeWidth = style.StrokeWidth
			if entered {
				d := d
				n.OnPointerEnter = func(ev scene.PointerEvent) {
					n.StrokeWidth = style.StrokeWidth + 1
					c.seriesEnter(name, d, ev.Pos)
				}
				n.OnPointerLeave = func(scene.PointerEvent) {
					n.StrokeWidth = style.StrokeWidth
					c.seriesLeave(name)
				}
			}
		})
}

func spikeKey(d Datum) string {
	return strconv.FormatFloat(d.Time, 'g', -1, 64)
}

// barLens returns the active horizontal lens mapping for the current pass,
// or the identity when no magnifier is active. Only positions inside the
// lens influence window (4x the lens half-width) are recomputed; everything
// else keeps its plain scale position.
func (c *Chart) barLens() func(px float32) float32 {
	if c.Mode() != ModeMagnifier || c.magnifier == nil || !c.magnifier.visible {
		return func(px float32) float32 { return px }
	}
	m := c.magnifier
	center := float64(m.center.X)
	influence := 2 * m.lens.Radius()
	return func(px float32) float32 {
		if abs32(px-float32(center)) > float32(influence) {
			return px
		}
		return float32(m.lens.At(center, float64(px)).XPrime)
	}
}

// radialLens returns the active 2-D lens mapping for the current pass, or
// the identity when no radial magnifier is active.
func (c *Chart) radialLens() func(p f32.Point) f32.Point {
	if c.Mode() != ModeMagnifier || c.magnifier == nil || !c.magnifier.visible || c.magnifier.kind != RadialLens {
		return func(p f32.Point) f32.Point { return p }
	}
	m := c.magnifier
	cx, cy := float64(m.center.X), float64(m.center.Y)
	influence := float32(2 * m.lens2d.Radius())
	return func(p f32.Point) f32.Point {
		if abs32(p.X-m.center.X) > influence || abs32(p.Y-m.center.Y) > influence {
			return p
		}
		tr := m.lens2d.At(cx, cy, float64(p.X), float64(p.Y))
		return f32.Pt(float32(tr.XPrime), float32(tr.YPrime))
	}
}
