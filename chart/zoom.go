package chart

import "gioui.org/io/key"

const (
	// Zoom factors are absolute relative to each range's original extent.
	// The lower bound stays above zero: a factor of 0 would collapse the
	// visible range to a single instant.
	minZoomFactor = 0.01
	maxZoomFactor = 10
)

// ZoomBy scales every time axis's visible range by proportion (relative to
// the current zoom) around the time under the given pixel x-coordinate.
// When the chart is configured with a zoom modifier, events without that
// modifier are ignored.
func (c *Chart) ZoomBy(proportion float64, pivotPx float32, mods key.Modifiers) {
	if c.cfg.ZoomModifier != 0 && !mods.Contain(c.cfg.ZoomModifier) {
		return
	}
	if proportion <= 0 {
		return
	}
	zoomed := false
	for _, id := range c.timeAxisIDs() {
		rng, ok := c.TimeRange(id)
		if !ok {
			continue
		}
		ca := c.continuousAxis(id)
		if ca == nil {
			continue
		}
		pivot := ca.Scale.Invert(pivotPx)
		factor := clamp(rng.ScaleFactor*proportion, minZoomFactor, maxZoomFactor)
		c.SetTimeRange(id, rng.Scale(factor, pivot))
		zoomed = true
	}
	if zoomed {
		c.requestRender()
	}
}
