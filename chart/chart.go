package chart

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"sort"
	"sync"
	"time"

	"gioui.org/f32"
	"gioui.org/io/key"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// SeriesStyle controls how one series is drawn.
type SeriesStyle struct {
	Stroke      color.NRGBA
	StrokeWidth float32
	Fill        color.NRGBA
}

// AxesAssignment names the axes one series maps through. Series without an
// assignment use the chart defaults.
type AxesAssignment struct {
	X, Y string
}

// VisualMode selects the active pointer decoration. Tooltip, tracker, and
// magnifier are mutually exclusive; enabling one disables the others.
type VisualMode uint8

const (
	ModeNone VisualMode = iota
	ModeTooltip
	ModeTracker
	ModeMagnifier
)

// HandlerSet carries the pointer callbacks registered under one handler ID.
type HandlerSet struct {
	OnSeriesEnter  func(series string, d Datum)
	OnSeriesLeave  func(series string)
	TooltipContent func(series string, d Datum) string
}

// Config is the construction-time configuration of a chart. Every field is
// optional; zero values fall back to the documented defaults.
type Config struct {
	// Margin reserves room for axes around the plot area.
	Margin axis.Margin
	// TimeWindow is the width of the visible time interval in data time
	// units. Defaults to 10000.
	TimeWindow float64
	// Styles maps series names to explicit styles; unstyled series draw
	// from the default palette.
	Styles map[string]SeriesStyle
	// Filter, when set, restricts rendering to series whose name matches.
	// Filtered-out series keep accumulating data; filtering is a
	// projection, not a deletion.
	Filter *regexp.Regexp
	// ResizeThrottle coalesces resize recomputation. Defaults to 50ms.
	ResizeThrottle time.Duration
	// ZoomModifier, when nonzero, gates wheel zoom behind a modifier key.
	ZoomModifier key.Modifiers
	// SubscribeOnAttach makes the widget subscribe to its source as soon as
	// it is attached to a window.
	SubscribeOnAttach bool

	Pipeline PipelineConfig

	// OnSubscribe receives the cancellation handle of each new
	// subscription.
	OnSubscribe func(cancel func())
	// OnUpdateData receives each series' newly arrived points per batch.
	OnUpdateData func(series string, points []Datum)
	// OnUpdateTime receives the per-axis time ranges after each batch.
	OnUpdateTime func(ranges map[string]axis.ContinuousRange)
}

func (cfg Config) withDefaults() Config {
	if cfg.TimeWindow == 0 {
		cfg.TimeWindow = 10_000
	}
	if cfg.ResizeThrottle == 0 {
		cfg.ResizeThrottle = 50 * time.Millisecond
	}
	if cfg.Margin == (axis.Margin{}) {
		cfg.Margin = axis.Margin{Top: 10, Bottom: 30, Left: 45, Right: 10}
	}
	return cfg
}

// palette is the default series color rotation.
var palette = []color.NRGBA{
	{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff},
	{R: 0x85, G: 0x76, B: 0x25, A: 0xff},
	{R: 0x51, G: 0x85, B: 0x4d, A: 0xff},
	{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff},
	{R: 0x72, G: 0x6c, B: 0xae, A: 0xff},
	{R: 0x97, G: 0x5f, B: 0x91, A: 0xff},
}

// Plot is a chart component that reconciles series data against its scene
// subtree. Render must read the axes' already-updated scales for the current
// pass, which the chart guarantees by updating axes first.
type Plot interface {
	Name() string
	Render(c *Chart) error
}

// Chart is the composition shell: it owns the retained canvas, the series
// store, the ingestion pipeline, the axes and time-range registries, series
// styling, and the handler registry shared by its plots and decorations.
type Chart struct {
	cfg      Config
	canvas   *scene.Canvas
	plotArea *scene.Node
	decor    *scene.Node

	store    *SeriesStore
	pipeline *Pipeline

	mu          sync.Mutex
	axes        map[string]axis.Axis
	defaultX    string
	defaultY    string
	assignments map[string]AxesAssignment
	timeRanges  map[string]axis.ContinuousRange
	handlers    map[string]HandlerSet
	plots       []Plot

	width, height     float32
	pendingW, pendingH float32
	havePending       bool
	lastResize        time.Time
	dims              axis.PlotDimensions

	mode      VisualMode
	tooltip   *Tooltip
	tracker   *Tracker
	magnifier *Magnifier

	dragging bool
	lastDrag f32.Point

	invalidate func()
}

// New constructs a chart with the given configuration.
func New(cfg Config) *Chart {
	cfg = cfg.withDefaults()
	canvas := scene.NewCanvas()
	c := &Chart{
		cfg:         cfg,
		canvas:      canvas,
		plotArea:    canvas.Root().Group("layer", "plots"),
		decor:       canvas.Root().Group("layer", "decorations"),
		store:       NewSeriesStore(),
		axes:        make(map[string]axis.Axis),
		assignments: make(map[string]AxesAssignment),
		timeRanges:  make(map[string]axis.ContinuousRange),
		handlers:    make(map[string]HandlerSet),
	}
	c.pipeline = NewPipeline(c.store, cfg.Pipeline, PipelineHooks{
		OnUpdateData: cfg.OnUpdateData,
		OnUpdateTime: c.advanceTime,
		Render:       c.requestRender,
	})
	return c
}

// Canvas exposes the retained scene for painting and pointer dispatch.
func (c *Chart) Canvas() *scene.Canvas { return c.canvas }

// Store exposes the live series store.
func (c *Chart) Store() *SeriesStore { return c.store }

// Pipeline exposes the ingestion pipeline.
func (c *Chart) Pipeline() *Pipeline { return c.pipeline }

// Config returns the chart's effective configuration.
func (c *Chart) Config() Config { return c.cfg }

// SetInvalidate installs the host's redraw request, typically a Gio window
// invalidation. The pipeline calls it after every processed batch.
func (c *Chart) SetInvalidate(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate = f
}

func (c *Chart) requestRender() {
	c.mu.Lock()
	f := c.invalidate
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

// Subscribe starts consuming the source through the windowed pipeline and
// reports the cancellation handle to the configured OnSubscribe callback.
func (c *Chart) Subscribe(ctx context.Context, src Provider) func() {
	c.mu.Lock()
	c.timeRanges = make(map[string]axis.ContinuousRange)
	c.mu.Unlock()
	cancel := c.pipeline.Subscribe(ctx, src)
	if c.cfg.OnSubscribe != nil {
		c.cfg.OnSubscribe(cancel)
	}
	return cancel
}

// AddContinuousAxis registers a continuous axis under the given ID,
// rendering into the chart's axis layer.
func (c *Chart) AddContinuousAxis(id string, location axis.Location) *axis.ContinuousAxis {
	ax := axis.NewContinuousAxis(id, location, c.canvas.Root())
	ax.OnDomain = func(id string, start, end float64) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.timeRanges[id]; !ok && (location == axis.Bottom || location == axis.Top) {
			c.timeRanges[id] = axis.RangeFor(start, end)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.axes[id] = ax
	return ax
}

// AddCategoryAxis registers a categorical axis under the given ID.
func (c *Chart) AddCategoryAxis(id string, location axis.Location) *axis.CategoryAxis {
	ax := axis.NewCategoryAxis(id, location, c.canvas.Root())
	c.mu.Lock()
	defer c.mu.Unlock()
	c.axes[id] = ax
	return ax
}

// SetDefaultAxes names the axes used by series without an explicit
// assignment.
func (c *Chart) SetDefaultAxes(x, y string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultX, c.defaultY = x, y
}

// AssignAxes overrides the axes used by one series.
func (c *Chart) AssignAxes(series string, assignment AxesAssignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments[series] = assignment
}

// Axis looks up a registered axis by ID.
func (c *Chart) Axis(id string) axis.Axis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.axes[id]
}

// axisIDsFor resolves the axis IDs for a series, falling back to the chart
// defaults. A missing assignment is a designed fallback, not an error.
func (c *Chart) axisIDsFor(series string) (x, y string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, y = c.defaultX, c.defaultY
	if a, ok := c.assignments[series]; ok {
		if a.X != "" {
			x = a.X
		}
		if a.Y != "" {
			y = a.Y
		}
	}
	if _, ok := c.axes[x]; !ok {
		x = c.defaultX
	}
	if _, ok := c.axes[y]; !ok {
		y = c.defaultY
	}
	return x, y
}

// XAxisFor returns the continuous x axis a series maps through, or an error
// when the resolved axis exists but has the wrong kind.
func (c *Chart) XAxisFor(plot, series string) (*axis.ContinuousAxis, error) {
	xID, _ := c.axisIDsFor(series)
	ax := c.Axis(xID)
	if ax == nil {
		return nil, nil
	}
	ca, ok := ax.(*axis.ContinuousAxis)
	if !ok {
		return nil, fmt.Errorf("%s plot requires x-axis of continuous type; axis %q is categorical", plot, xID)
	}
	return ca, nil
}

// AddPlot attaches a plot component.
func (c *Chart) AddPlot(p Plot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plots = append(c.plots, p)
}

// PlotArea returns the clipped scene group that plots render into.
func (c *Chart) PlotArea() *scene.Node { return c.plotArea }

// Decorations returns the scene group decorations render into, drawn above
// the plots.
func (c *Chart) Decorations() *scene.Node { return c.decor }

// StyleFor returns the style for a series, falling back to the default
// palette keyed by the series' position in the store.
func (c *Chart) StyleFor(series string) SeriesStyle {
	if s, ok := c.cfg.Styles[series]; ok {
		return s
	}
	idx := 0
	for i, name := range c.store.Names() {
		if name == series {
			idx = i
			break
		}
	}
	col := palette[idx%len(palette)]
	return SeriesStyle{Stroke: col, StrokeWidth: 1, Fill: col}
}

// SetFilter replaces the active series filter. A nil filter shows every
// series.
func (c *Chart) SetFilter(re *regexp.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Filter = re
}

// SeriesVisible reports whether a series passes the active filter.
func (c *Chart) SeriesVisible(series string) bool {
	c.mu.Lock()
	re := c.cfg.Filter
	c.mu.Unlock()
	return re == nil || re.MatchString(series)
}

// RegisterHandlers installs pointer handlers under an opaque ID. A later
// registration with the same ID replaces the earlier one, so there is at
// most one active provider per ID.
func (c *Chart) RegisterHandlers(id string, h HandlerSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[id] = h
}

// UnregisterHandlers removes the handlers registered under an ID.
func (c *Chart) UnregisterHandlers(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, id)
}

func (c *Chart) handlerIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.handlers))
	for id := range c.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// seriesEnter fans a datum hover out to every registered handler and, in
// tooltip mode, shows the tooltip with the registered providers' content.
func (c *Chart) seriesEnter(series string, d Datum, pos f32.Point) {
	var lines []string
	for _, id := range c.handlerIDs() {
		c.mu.Lock()
		h := c.handlers[id]
		c.mu.Unlock()
		if h.OnSeriesEnter != nil {
			h.OnSeriesEnter(series, d)
		}
		if h.TooltipContent != nil {
			lines = append(lines, h.TooltipContent(series, d))
		}
	}
	if c.Mode() == ModeTooltip && c.tooltip != nil {
		if len(lines) == 0 {
			lines = []string{fmt.Sprintf("%s: %.3f @ %.1f", series, d.Value, d.Time)}
		}
		c.tooltip.show(pos, lines)
		c.requestRender()
	}
}

func (c *Chart) seriesLeave(series string) {
	for _, id := range c.handlerIDs() {
		c.mu.Lock()
		h := c.handlers[id]
		c.mu.Unlock()
		if h.OnSeriesLeave != nil {
			h.OnSeriesLeave(series)
		}
	}
	if c.tooltip != nil {
		c.tooltip.hide()
		c.requestRender()
	}
}

// Mode reports the active visual mode.
func (c *Chart) Mode() VisualMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Chart) setMode(m VisualMode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
	if c.tooltip != nil && m != ModeTooltip {
		c.tooltip.hide()
	}
	if c.tracker != nil && m != ModeTracker {
		c.tracker.hide()
	}
	if c.magnifier != nil && m != ModeMagnifier {
		c.magnifier.hide()
	}
}

// EnableTooltip switches the chart into tooltip mode, disabling the tracker
// and magnifier.
func (c *Chart) EnableTooltip() {
	if c.tooltip == nil {
		c.tooltip = newTooltip(c.decor)
	}
	c.setMode(ModeTooltip)
}

// EnableTracker switches the chart into tracker mode, disabling the tooltip
// and magnifier.
func (c *Chart) EnableTracker() {
	if c.tracker == nil {
		c.tracker = newTracker(c.decor)
	}
	c.setMode(ModeTracker)
}

// EnableMagnifier switches the chart into magnifier mode with the given lens
// geometry, disabling the tooltip and tracker. It fails if the lens
// parameters are invalid.
func (c *Chart) EnableMagnifier(kind LensKind, radius, power float64) error {
	m, err := newMagnifier(c.decor, kind, radius, power)
	if err != nil {
		return err
	}
	c.magnifier = m
	c.setMode(ModeMagnifier)
	return nil
}

// DisableDecorations returns the chart to plain mode.
func (c *Chart) DisableDecorations() {
	c.setMode(ModeNone)
}

// TimeWindow reports the configured visible window width.
func (c *Chart) TimeWindow() float64 { return c.cfg.TimeWindow }

// TimeRange returns the current range registered for an axis.
func (c *Chart) TimeRange(id string) (axis.ContinuousRange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.timeRanges[id]
	return r, ok
}

// SetTimeRange replaces the range registered for an axis.
func (c *Chart) SetTimeRange(id string, r axis.ContinuousRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeRanges[id] = r
}

// TimeRanges returns a copy of the per-axis range registry.
func (c *Chart) TimeRanges() map[string]axis.ContinuousRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]axis.ContinuousRange, len(c.timeRanges))
	for id, r := range c.timeRanges {
		out[id] = r
	}
	return out
}

// timeAxisIDs returns the IDs of continuous axes that carry time, which by
// convention are the horizontal ones.
func (c *Chart) timeAxisIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for id, ax := range c.axes {
		ca, ok := ax.(*axis.ContinuousAxis)
		if !ok {
			continue
		}
		if loc := ca.Location(); loc == axis.Bottom || loc == axis.Top {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// advanceTime moves every time axis's window forward to the new cursor while
// preserving the user's zoom and pan, then reports the ranges to the
// configured callback.
func (c *Chart) advanceTime(currentTime float64) {
	start := currentTime - c.cfg.TimeWindow
	if start < 0 {
		start = 0
	}
	end := currentTime
	if end < c.cfg.TimeWindow {
		end = c.cfg.TimeWindow
	}
	for _, id := range c.timeAxisIDs() {
		c.mu.Lock()
		r, ok := c.timeRanges[id]
		if !ok {
			c.timeRanges[id] = axis.RangeFor(start, end)
		} else {
			c.timeRanges[id] = r.WithOriginal(start, end)
		}
		c.mu.Unlock()
	}
	if c.cfg.OnUpdateTime != nil {
		c.cfg.OnUpdateTime(c.TimeRanges())
	}
}

// Resize records a new container size. Recomputation is throttled so that a
// continuous resize drag does not flood the render pass; the most recent
// size always wins on the next pass after the throttle interval.
func (c *Chart) Resize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.width && height == c.height && !c.havePending {
		return
	}
	c.pendingW, c.pendingH = width, height
	c.havePending = true
	now := time.Now()
	if now.Sub(c.lastResize) >= c.cfg.ResizeThrottle {
		c.applyResizeLocked(now)
	}
}

func (c *Chart) applyResizeLocked(now time.Time) {
	c.width, c.height = c.pendingW, c.pendingH
	c.havePending = false
	c.lastResize = now
	c.dims = axis.AdjustedDimensions(c.width, c.height, c.cfg.Margin)
}

// Dims reports the current plot-area dimensions.
func (c *Chart) Dims() axis.PlotDimensions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dims
}

// Margin reports the configured margin.
func (c *Chart) Margin() axis.Margin { return c.cfg.Margin }

// plotRect is the pixel rectangle of the plot area.
func (c *Chart) plotRect() image.Rectangle {
	m := c.cfg.Margin
	d := c.Dims()
	return image.Rect(int(m.Left), int(m.Top), int(m.Left+d.Width), int(m.Top+d.Height))
}

// InPlotArea reports whether a pixel position lies inside the plot area.
func (c *Chart) InPlotArea(pos f32.Point) bool {
	return image.Pt(int(pos.X), int(pos.Y)).In(c.plotRect())
}

// Render performs one full pass: apply any pending resize, re-establish the
// plot clip region, update every axis from the current ranges, and let each
// plot reconcile its primitives against the store. Axis updates strictly
// precede primitive updates so no primitive is positioned with a stale
// scale.
func (c *Chart) Render() error {
	c.mu.Lock()
	if c.havePending && time.Since(c.lastResize) >= c.cfg.ResizeThrottle {
		c.applyResizeLocked(time.Now())
	}
	c.mu.Unlock()

	rect := c.plotRect()
	c.plotArea.SetClip(rect)

	for _, id := range c.timeAxisIDs() {
		r, ok := c.TimeRange(id)
		if !ok {
			continue
		}
		ax := c.Axis(id).(*axis.ContinuousAxis)
		ax.Update(r.Start, r.End, c.Dims(), c.cfg.Margin)
	}

	c.mu.Lock()
	plots := make([]Plot, len(c.plots))
	copy(plots, c.plots)
	c.mu.Unlock()
	for _, p := range plots {
		if err := p.Render(c); err != nil {
			return err
		}
	}

	if c.Mode() == ModeMagnifier && c.magnifier != nil {
		if xa, err := c.XAxisFor("magnifier", ""); err == nil && xa != nil {
			c.magnifier.render(c, xa)
		}
	}
	if c.Mode() == ModeTracker && c.tracker != nil {
		if xa, err := c.XAxisFor("tracker", ""); err == nil && xa != nil {
			c.tracker.render(c, xa)
		}
	}
	return nil
}
