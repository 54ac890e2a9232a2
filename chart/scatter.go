package chart

import (
	"fmt"
	"math"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// ScatterPlot draws each series as a dotted polyline, the rendering used for
// scalar trajectories such as connection weights. It requires continuous x
// and y axes.
type ScatterPlot struct {
	name  string
	group *scene.Node
	// DotRadius is the radius of the per-datum markers. Zero hides them.
	DotRadius float32
	// Interpolate joins successive points with a polyline.
	Interpolate bool
	// YDomain fixes the y axis domain. When Auto is set the domain is
	// recomputed each pass from the visible data with a small headroom.
	YDomain     [2]float64
	AutoYDomain bool
}

// NewScatterPlot attaches a scatter plot to the chart.
func NewScatterPlot(c *Chart, name string) *ScatterPlot {
	p := &ScatterPlot{
		name:        name,
		group:       c.PlotArea().Group("scatter", name),
		DotRadius:   2,
		Interpolate: true,
		AutoYDomain: true,
	}
	c.AddPlot(p)
	return p
}

func (p *ScatterPlot) Name() string { return p.name }

// Render reconciles the polyline and dot primitives against the store for
// the current time range.
func (p *ScatterPlot) Render(c *Chart) error {
	names := c.Store().Names()

	ya, err := p.yAxis(c, names)
	if err != nil {
		return err
	}

	type seriesPass struct {
		name string
		data []Datum
		xa   *axis.ContinuousAxis
	}
	var passes []seriesPass
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, name := range names {
		grp := p.group.Group("series", name)
		if !c.SeriesVisible(name) {
			p.bindEmpty(grp)
			continue
		}
		xa, err := c.XAxisFor("scatter", name)
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
		for _, d := range data {
			yMin = math.Min(yMin, d.Value)
			yMax = math.Max(yMax, d.Value)
		}
		passes = append(passes, seriesPass{name: name, data: data, xa: xa})
	}

	if ya == nil {
		// Projection, not deletion: without a y axis the data stays in the
		// store and the marks wait for an axis to resolve.
		for _, pass := range passes {
			p.bindEmpty(p.group.Group("series", pass.name))
		}
		return nil
	}
	lo, hi := p.YDomain[0], p.YDomain[1]
	if p.AutoYDomain && yMin <= yMax {
		headroom := (yMax - yMin) / 10
		if headroom == 0 {
			headroom = 1
		}
		lo, hi = yMin-headroom, yMax+headroom
	}
	// Axis scales update before any primitive is positioned.
	ya.Update(lo, hi, c.Dims(), c.Margin())

	magnify := c.radialLens()
	for _, pass := range passes {
		grp := p.group.Group("series", pass.name)
		style := c.StyleFor(pass.name)
		points := make([]f32.Point, 0, len(pass.data))
		for _, d := range pass.data {
			pt := f32.Pt(pass.xa.Scale.Apply(d.Time), ya.Scale.Apply(d.Value))
			points = append(points, magnify(pt))
		}

		if p.Interpolate {
			line := grp.Ensure(scene.KindPath, "interp", "line")
			line.Points = append(line.Points[:0], points...)
			line.Stroke = style.Stroke
			line.StrokeWidth = style.StrokeWidth
		}

		if p.DotRadius > 0 {
			name := pass.name
			// Bind applies in data order, so the transformed point slice
			// lines up with the reconciled dots.
			idx := 0
			scene.Bind(grp, scene.KindCircle, "dot", pass.data, spikeKey,
				func(n *scene.Node, d Datum, entered bool) {
					if idx < len(points) {
						n.CX, n.CY = points[idx].X, points[idx].Y
					}
					idx++
					n.R = p.DotRadius
					n.Fill = style.Fill
					if entered {
						d := d
						n.OnPointerEnter = func(ev scene.PointerEvent) {
							n.R = p.DotRadius + 2
							c.seriesEnter(name, d, ev.Pos)
						}
						n.OnPointerLeave = func(scene.PointerEvent) {
							n.R = p.DotRadius
							c.seriesLeave(name)
						}
					}
				})
		}
	}
	return nil
}

func (p *ScatterPlot) bindEmpty(grp *scene.Node) {
	scene.Bind(grp, scene.KindCircle, "dot", nil, spikeKey,
		func(n *scene.Node, d Datum, entered bool) {})
	var paths []*scene.Node
	for _, child := range grp.Children() {
		if child.Kind() == scene.KindPath {
			paths = append(paths, child)
		}
	}
	for _, path := range paths {
		path.Remove()
	}
}

func (p *ScatterPlot) yAxis(c *Chart, names []string) (*axis.ContinuousAxis, error) {
	for _, name := range names {
		_, yID := c.axisIDsFor(name)
		ax := c.Axis(yID)
		if ax == nil {
			continue
		}
		ca, ok := ax.(*axis.ContinuousAxis)
		if !ok {
			return nil, fmt.Errorf("scatter plot requires y-axis of continuous type; axis %q is categorical", yID)
		}
		return ca, nil
	}
	return nil, nil
}
