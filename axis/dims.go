// Package axis provides the coordinate machinery for streaming charts:
// zoomable continuous ranges, linear and categorical scales, and axes that
// render their own ticks into a retained scene group.
package axis

// Margin reserves pixels around the plot area for axes and labels.
type Margin struct {
	Top, Bottom, Left, Right float32
}

// PlotDimensions is the pixel size of the plot area after margins are
// subtracted.
type PlotDimensions struct {
	Width, Height float32
}

// AdjustedDimensions subtracts the margin from a container size to produce
// the plot area.
func AdjustedDimensions(width, height float32, m Margin) PlotDimensions {
	return PlotDimensions{
		Width:  width - m.Left - m.Right,
		Height: height - m.Top - m.Bottom,
	}
}
