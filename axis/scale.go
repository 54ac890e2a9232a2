package axis

import (
	"gonum.org/v1/gonum/floats"
)

// LinearScale maps a continuous numeric domain onto a pixel interval.
type LinearScale struct {
	DomainStart, DomainEnd float64
	RangeStart, RangeEnd   float32
}

// NewLinearScale constructs a scale mapping [domainStart, domainEnd] onto
// [rangeStart, rangeEnd].
func NewLinearScale(domainStart, domainEnd float64, rangeStart, rangeEnd float32) LinearScale {
	return LinearScale{
		DomainStart: domainStart,
		DomainEnd:   domainEnd,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
	}
}

// Apply maps a domain value to its pixel position.
func (s LinearScale) Apply(v float64) float32 {
	interval := s.DomainEnd - s.DomainStart
	if interval == 0 {
		return s.RangeStart
	}
	t := (v - s.DomainStart) / interval
	return s.RangeStart + float32(t)*(s.RangeEnd-s.RangeStart)
}

// Invert maps a pixel position back to its domain value.
func (s LinearScale) Invert(px float32) float64 {
	interval := s.RangeEnd - s.RangeStart
	if interval == 0 {
		return s.DomainStart
	}
	t := float64((px - s.RangeStart) / interval)
	return s.DomainStart + t*(s.DomainEnd-s.DomainStart)
}

// Ticks returns n evenly spaced tick values spanning the domain, endpoints
// included.
func (s LinearScale) Ticks(n int) []float64 {
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), s.DomainStart, s.DomainEnd)
}

// BandScale maps an ordered set of category names onto equal-height pixel
// bands.
type BandScale struct {
	Names []string
	// CategorySize is the band height in pixels. It is derived from the
	// unfiltered category count, so filtering out categories hides bands
	// without resizing the remaining ones.
	CategorySize float32
	RangeStart   float32

	index map[string]int
}

// NewBandScale constructs a band scale for the visible names, sizing bands
// by totalCount (the unfiltered number of categories).
func NewBandScale(names []string, totalCount int, rangeStart, rangeEnd float32) BandScale {
	if totalCount < 1 {
		totalCount = max(len(names), 1)
	}
	idx := make(map[string]int, len(names))
	for i, name := range names {
		idx[name] = i
	}
	return BandScale{
		Names:        names,
		CategorySize: (rangeEnd - rangeStart) / float32(totalCount),
		RangeStart:   rangeStart,
		index:        idx,
	}
}

// Band returns the pixel position of the top of the named category's band.
func (b BandScale) Band(name string) (top float32, ok bool) {
	i, ok := b.index[name]
	if !ok {
		return 0, false
	}
	return b.RangeStart + float32(i)*b.CategorySize, true
}

// Center returns the pixel position of the middle of the named category's
// band.
func (b BandScale) Center(name string) (float32, bool) {
	top, ok := b.Band(name)
	if !ok {
		return 0, false
	}
	return top + b.CategorySize/2, true
}

// Invert returns the category whose band contains the pixel position.
func (b BandScale) Invert(px float32) (string, bool) {
	if b.CategorySize <= 0 {
		return "", false
	}
	offset := px - b.RangeStart
	if offset < 0 {
		return "", false
	}
	i := int(offset / b.CategorySize)
	if i >= len(b.Names) {
		return "", false
	}
	return b.Names[i], true
}
