// Package chart implements streaming interactive charts: a mutable store of
// named time series, a windowed ingestion pipeline feeding it, plot
// components that reconcile the data against a retained scene graph, and the
// pan/zoom/lens/tracker interactions over them.
package chart

import (
	"sort"
	"sync"
)

// Datum is one sample of a series. Data are created by the source and never
// mutated afterwards.
type Datum struct {
	Time  float64
	Value float64
}

// Series is one logical stream of time-ordered data. A series is mutated in
// place during streaming (append at the tail, trim at the head) and never
// replaced wholesale, so render state can hold its pointer across passes.
type Series struct {
	name string
	data []Datum
}

// Name reports the series name.
func (s *Series) Name() string { return s.name }

// Len reports the number of points currently held.
func (s *Series) Len() int { return len(s.data) }

// Last returns the most recent point.
func (s *Series) Last() (Datum, bool) {
	if len(s.data) == 0 {
		return Datum{}, false
	}
	return s.data[len(s.data)-1], true
}

// append adds points at the tail, dropping any point that does not advance
// time. The caller guarantees each batch is internally time-ordered.
func (s *Series) append(points []Datum) {
	for _, p := range points {
		if len(s.data) > 0 && p.Time < s.data[len(s.data)-1].Time {
			continue
		}
		s.data = append(s.data, p)
	}
}

// trimOlderThan drops points from the head while they are older than cutoff.
func (s *Series) trimOlderThan(cutoff float64) {
	i := 0
	for i < len(s.data) && s.data[i].Time < cutoff {
		i++
	}
	if i > 0 {
		s.data = s.data[i:]
	}
}

// selectInRange returns the points overlapping [start, end], including the
// one point immediately preceding start so that a line drawn from the result
// reaches the clip boundary instead of starting mid-segment.
func (s *Series) selectInRange(start, end float64) []Datum {
	lo := sort.Search(len(s.data), func(i int) bool {
		return s.data[i].Time >= start
	})
	if lo > 0 {
		lo--
	}
	hi := sort.Search(len(s.data), func(i int) bool {
		return s.data[i].Time > end
	})
	return s.data[lo:hi]
}

// SeriesStore owns every live series of a chart. It is written by the
// ingestion goroutine and read by the render pass, so access is guarded by a
// read-write lock the way the sensing backend guards its sample series.
//
// The store hands out stable *Series handles; replacing them happens only on
// Reset, which marks an explicit data-set change.
type SeriesStore struct {
	mu     sync.RWMutex
	order  []string
	series map[string]*Series
}

// NewSeriesStore constructs a store, optionally pre-creating empty series so
// that their ordering is fixed before data arrives.
func NewSeriesStore(names ...string) *SeriesStore {
	st := &SeriesStore{series: make(map[string]*Series)}
	for _, name := range names {
		st.ensureLocked(name)
	}
	return st
}

func (st *SeriesStore) ensureLocked(name string) *Series {
	s, ok := st.series[name]
	if !ok {
		s = &Series{name: name}
		st.series[name] = s
		st.order = append(st.order, name)
	}
	return s
}

// Names returns the series names in registration order.
func (st *SeriesStore) Names() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

// Get returns the live handle for a named series, or nil if the series is
// unknown.
func (st *SeriesStore) Get(name string) *Series {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.series[name]
}

// Len reports the number of points held for a named series.
func (st *SeriesStore) Len(name string) int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.series[name]; ok {
		return len(s.data)
	}
	return 0
}

// Append adds points to the tail of the named series, creating the series if
// it is unknown.
func (st *SeriesStore) Append(name string, points []Datum) *Series {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensureLocked(name)
	s.append(points)
	return s
}

// TrimOlderThan drops points older than cutoff from the head of the named
// series.
func (st *SeriesStore) TrimOlderThan(name string, cutoff float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.series[name]; ok {
		s.trimOlderThan(cutoff)
	}
}

// TrimAllOlderThan drops points older than cutoff from every series.
func (st *SeriesStore) TrimAllOlderThan(cutoff float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.series {
		s.trimOlderThan(cutoff)
	}
}

// SelectInRange returns the named series' points overlapping [start, end],
// inclusive of the one point immediately preceding start. The result aliases
// the store's backing array and must be treated as a read-only snapshot for
// the current pass.
func (st *SeriesStore) SelectInRange(name string, start, end float64) []Datum {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.series[name]; ok {
		return s.selectInRange(start, end)
	}
	return nil
}

// Reset discards every series and starts over with fresh handles. Reserved
// for explicit data-set changes; during normal streaming the store only
// mutates in place.
func (st *SeriesStore) Reset(names ...string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = st.order[:0]
	st.series = make(map[string]*Series)
	for _, name := range names {
		st.ensureLocked(name)
	}
}
