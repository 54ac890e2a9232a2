package axis

import (
	"image/color"
	"strconv"

	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// Location places an axis on one edge of the plot area.
type Location uint8

const (
	Bottom Location = iota
	Left
	Top
	Right
)

// Axis is implemented by ContinuousAxis and CategoryAxis. Plot components
// type-assert to the concrete kind they require and treat a mismatch as a
// configuration error.
type Axis interface {
	ID() string
	Location() Location
}

const (
	tickLength    = 6
	tickTextSize  = 11
	labelPad      = 4
	defaultTicks  = 6
	axisLineClass = "axis-line"
	tickClass     = "tick"
	tickTextClass = "tick-label"
)

var axisColor = color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}

// ContinuousAxis maps a numeric domain (commonly time) onto one edge of the
// plot and draws its own ticks into a retained scene group.
type ContinuousAxis struct {
	id       string
	location Location
	group    *scene.Node

	Scale LinearScale

	// OnDomain, when set, is invoked with the new domain after every Update.
	// The chart shell uses it to keep its time-range registry current.
	OnDomain func(id string, start, end float64)
}

// NewContinuousAxis creates an axis rendering into a child group of root.
func NewContinuousAxis(id string, location Location, root *scene.Node) *ContinuousAxis {
	return &ContinuousAxis{
		id:       id,
		location: location,
		group:    root.Group("axis", id),
	}
}

func (a *ContinuousAxis) ID() string         { return a.id }
func (a *ContinuousAxis) Location() Location { return a.location }

// Group exposes the axis's scene group.
func (a *ContinuousAxis) Group() *scene.Node { return a.group }

// Update re-binds the axis to a new domain and plot geometry, then redraws
// the baseline, tick marks, and tick labels. Tick primitives are reconciled,
// not rebuilt, so an axis that updates every batch reuses its nodes.
func (a *ContinuousAxis) Update(domainStart, domainEnd float64, dims PlotDimensions, margin Margin) {
	switch a.location {
	case Bottom, Top:
		a.Scale = NewLinearScale(domainStart, domainEnd, margin.Left, margin.Left+dims.Width)
	case Left, Right:
		// Larger domain values sit higher on screen.
		a.Scale = NewLinearScale(domainStart, domainEnd, margin.Top+dims.Height, margin.Top)
	}
	a.redraw(dims, margin)
	if a.OnDomain != nil {
		a.OnDomain(a.id, domainStart, domainEnd)
	}
}

func (a *ContinuousAxis) redraw(dims PlotDimensions, margin Margin) {
	baselinePos := a.baseline(dims, margin)
	line := a.group.Ensure(scene.KindLine, axisLineClass, a.id)
	line.Stroke = axisColor
	switch a.location {
	case Bottom, Top:
		line.X1, line.X2 = margin.Left, margin.Left+dims.Width
		line.Y1, line.Y2 = baselinePos, baselinePos
	case Left, Right:
		line.X1, line.X2 = baselinePos, baselinePos
		line.Y1, line.Y2 = margin.Top, margin.Top+dims.Height
	}

	ticks := a.Scale.Ticks(defaultTicks)
	scene.Bind(a.group, scene.KindLine, tickClass, ticks, formatTick,
		func(n *scene.Node, v float64, entered bool) {
			n.Stroke = axisColor
			pos := a.Scale.Apply(v)
			switch a.location {
			case Bottom:
				n.X1, n.X2 = pos, pos
				n.Y1, n.Y2 = baselinePos, baselinePos+tickLength
			case Top:
				n.X1, n.X2 = pos, pos
				n.Y1, n.Y2 = baselinePos-tickLength, baselinePos
			case Left:
				n.X1, n.X2 = baselinePos-tickLength, baselinePos
				n.Y1, n.Y2 = pos, pos
			case Right:
				n.X1, n.X2 = baselinePos, baselinePos+tickLength
				n.Y1, n.Y2 = pos, pos
			}
		})
	scene.Bind(a.group, scene.KindText, tickTextClass, ticks, formatTick,
		func(n *scene.Node, v float64, entered bool) {
			n.Text = formatTick(v)
			n.TextSize = tickTextSize
			n.Fill = axisColor
			pos := a.Scale.Apply(v)
			switch a.location {
			case Bottom:
				n.X, n.Y = pos, baselinePos+tickLength+labelPad
			case Top:
				n.X, n.Y = pos, baselinePos-tickLength-labelPad-tickTextSize
			case Left:
				n.X, n.Y = baselinePos-tickLength-labelPad-24, pos-tickTextSize/2
			case Right:
				n.X, n.Y = baselinePos+tickLength+labelPad, pos-tickTextSize/2
			}
		})
}

func (a *ContinuousAxis) baseline(dims PlotDimensions, margin Margin) float32 {
	switch a.location {
	case Bottom:
		return margin.Top + dims.Height
	case Top:
		return margin.Top
	case Left:
		return margin.Left
	default:
		return margin.Left + dims.Width
	}
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}

// CategoryAxis maps a fixed ordered set of names onto equal-sized bands,
// used by raster plots to give each stream its own row.
type CategoryAxis struct {
	id       string
	location Location
	group    *scene.Node

	Scale BandScale
}

// NewCategoryAxis creates a categorical axis rendering into a child group of
// root.
func NewCategoryAxis(id string, location Location, root *scene.Node) *CategoryAxis {
	return &CategoryAxis{
		id:       id,
		location: location,
		group:    root.Group("axis", id),
	}
}

func (a *CategoryAxis) ID() string         { return a.id }
func (a *CategoryAxis) Location() Location { return a.location }

// Group exposes the axis's scene group.
func (a *CategoryAxis) Group() *scene.Node { return a.group }

// Update re-binds the axis to the visible names. Band size derives from
// totalCount, the unfiltered number of categories, so filtering hides bands
// without growing the survivors.
func (a *CategoryAxis) Update(names []string, totalCount int, dims PlotDimensions, margin Margin) {
	switch a.location {
	case Left, Right:
		a.Scale = NewBandScale(names, totalCount, margin.Top, margin.Top+dims.Height)
	default:
		a.Scale = NewBandScale(names, totalCount, margin.Left, margin.Left+dims.Width)
	}
	baselinePos := a.baseline(dims, margin)
	scene.Bind(a.group, scene.KindText, tickTextClass, names,
		func(name string) string { return name },
		func(n *scene.Node, name string, entered bool) {
			n.Text = name
			n.TextSize = tickTextSize
			n.Fill = axisColor
			center, _ := a.Scale.Center(name)
			switch a.location {
			case Left:
				n.X, n.Y = baselinePos-tickLength-labelPad-40, center-tickTextSize/2
			case Right:
				n.X, n.Y = baselinePos+tickLength+labelPad, center-tickTextSize/2
			default:
				n.X, n.Y = center, baselinePos+tickLength+labelPad
			}
		})
}

func (a *CategoryAxis) baseline(dims PlotDimensions, margin Margin) float32 {
	switch a.location {
	case Bottom:
		return margin.Top + dims.Height
	case Top:
		return margin.Top
	case Left:
		return margin.Left
	default:
		return margin.Left + dims.Width
	}
}
