package chart

import "git.sr.ht/~whereswaldon/streamviz/axis"

func (c *Chart) continuousAxis(id string) *axis.ContinuousAxis {
	ca, _ := c.Axis(id).(*axis.ContinuousAxis)
	return ca
}

// PanBy shifts every time axis's visible range by the given horizontal pixel
// delta. The delta is converted to a time delta through each axis's own
// scale so that panning tracks the pointer exactly at any zoom level. A
// chart with no registered time axis ignores pans.
func (c *Chart) PanBy(deltaPx float32) {
	panned := false
	for _, id := range c.timeAxisIDs() {
		rng, ok := c.TimeRange(id)
		if !ok {
			continue
		}
		ca := c.continuousAxis(id)
		if ca == nil {
			continue
		}
		sc := ca.Scale
		timeDelta := sc.Invert(sc.RangeStart+deltaPx) - sc.Invert(sc.RangeStart)
		c.SetTimeRange(id, rng.Translate(-timeDelta))
		panned = true
	}
	if panned {
		c.requestRender()
	}
}
