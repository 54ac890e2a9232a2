package axis

// ContinuousRange is the currently visible interval of a continuous axis
// domain. It is a value type: Scale and Translate return derived ranges that
// share the same original extent, so arbitrarily long zoom/pan chains never
// drift from the true zoom-to-original ratio.
type ContinuousRange struct {
	Start, End float64
	// ScaleFactor is (End-Start)/(originalEnd-originalStart).
	ScaleFactor float64

	originalStart, originalEnd float64
}

// RangeFor constructs a range whose original extent is the normalized
// (start, end) interval.
func RangeFor(start, end float64) ContinuousRange {
	if end < start {
		start, end = end, start
	}
	return ContinuousRange{
		Start:         start,
		End:           end,
		ScaleFactor:   1,
		originalStart: start,
		originalEnd:   end,
	}
}

func derive(originalStart, originalEnd, start, end float64) ContinuousRange {
	factor := 1.0
	if originalEnd != originalStart {
		factor = (end - start) / (originalEnd - originalStart)
	}
	return ContinuousRange{
		Start:         start,
		End:           end,
		ScaleFactor:   factor,
		originalStart: originalStart,
		originalEnd:   originalEnd,
	}
}

// Scale zooms the range to an absolute factor of its original extent around
// the given pivot. The factor is relative to the original extent, not the
// previous frame: passing the range's current ScaleFactor reproduces the
// current interval exactly, and passing 1 recovers the original extent
// exactly.
func (r ContinuousRange) Scale(factor, pivot float64) ContinuousRange {
	if factor == r.ScaleFactor {
		return r
	}
	if factor == 1 {
		return derive(r.originalStart, r.originalEnd, r.originalStart, r.originalEnd)
	}
	start := pivot - (pivot-r.Start)*factor/r.ScaleFactor
	end := pivot + (r.End-pivot)*factor/r.ScaleFactor
	return derive(r.originalStart, r.originalEnd, start, end)
}

// Translate shifts the visible interval by delta, preserving the scale
// factor.
func (r ContinuousRange) Translate(delta float64) ContinuousRange {
	out := r
	out.Start += delta
	out.End += delta
	return out
}

// MatchesOriginal reports whether (start, end) equals the range's original
// extent exactly.
func (r ContinuousRange) MatchesOriginal(start, end float64) bool {
	return r.originalStart == start && r.originalEnd == end
}

// Original returns the range's original extent.
func (r ContinuousRange) Original() (start, end float64) {
	return r.originalStart, r.originalEnd
}

// WithOriginal re-derives the range onto a new original extent, which is how
// streaming data advances the window underneath the user. An untouched range
// (still showing its original extent) snaps to the new extent; a zoomed or
// panned range keeps its visible interval and only the original extent is
// replaced.
func (r ContinuousRange) WithOriginal(start, end float64) ContinuousRange {
	if end < start {
		start, end = end, start
	}
	if r.MatchesOriginal(r.Start, r.End) {
		return RangeFor(start, end)
	}
	return derive(start, end, r.Start, r.End)
}

// Width is the visible interval length.
func (r ContinuousRange) Width() float64 {
	return r.End - r.Start
}
