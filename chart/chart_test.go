package chart

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/scene"
)

// countClass counts nodes of the given class anywhere in the canvas.
func countClass(c *Chart, class string) int {
	total := 0
	scene.Walk(c.Canvas().Root(), func(n *scene.Node) {
		if n.Class() == class {
			total++
		}
	})
	return total
}

func newRasterChart(t *testing.T) *Chart {
	t.Helper()
	c := New(Config{})
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddCategoryAxis("rows", axis.Left)
	c.SetDefaultAxes("t", "rows")
	NewRasterPlot(c, "spikes")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	return c
}

func TestRasterRenderReconcilesSpikes(t *testing.T) {
	c := newRasterChart(t)
	c.Store().Append("s1", []Datum{{Time: 10}, {Time: 50}})
	c.Store().Append("s2", []Datum{{Time: 30}})

	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 3 {
		t.Errorf("expected 3 spikes, got %d", got)
	}

	// New data enters; existing nodes survive the next pass.
	c.Store().Append("s1", []Datum{{Time: 70}})
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 4 {
		t.Errorf("expected 4 spikes after append, got %d", got)
	}

	// Points leaving the visible range exit.
	c.SetTimeRange("t", axis.RangeFor(40, 100))
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	// selectInRange keeps the point preceding the window start per series.
	if got := countClass(c, "spike"); got != 4 {
		t.Errorf("expected 4 spikes with boundary predecessors, got %d", got)
	}
	c.SetTimeRange("t", axis.RangeFor(60, 100))
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	// s1 keeps {50, 70}, s2 keeps its lone predecessor {30}.
	if got := countClass(c, "spike"); got != 3 {
		t.Errorf("expected 3 spikes after window advance, got %d", got)
	}
}

func TestStreamingEndToEnd(t *testing.T) {
	c := New(Config{
		TimeWindow: 100,
		Pipeline:   PipelineConfig{WindowingTime: time.Hour},
	})
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddCategoryAxis("rows", axis.Left)
	c.SetDefaultAxes("t", "rows")
	NewRasterPlot(c, "spikes")
	c.Resize(800, 600)

	rendered := make(chan struct{})
	c.SetInvalidate(func() { close(rendered) })

	cancel := c.Subscribe(context.Background(), func(ctx context.Context) <-chan ChartData {
		ch := make(chan ChartData, 1)
		ch <- ChartData{
			MaxTime: 100,
			NewPoints: map[string][]Datum{
				"s1": {{Time: 90, Value: 1}},
				"s2": {{Time: 90, Value: 1}},
			},
		}
		close(ch)
		return ch
	})
	defer cancel()

	select {
	case <-rendered:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for render request")
	}

	for _, name := range []string{"s1", "s2"} {
		if got := c.Store().Len(name); got != 1 {
			t.Errorf("%s: expected exactly 1 point, got %d", name, got)
		}
	}
	rng, ok := c.TimeRange("t")
	if !ok {
		t.Fatal("expected a time range for the time axis")
	}
	if rng.Start != 0 || rng.End != 100 {
		t.Errorf("expected range [0, 100], got [%v, %v]", rng.Start, rng.End)
	}

	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 2 {
		t.Errorf("expected one spike per series, got %d", got)
	}
}

func TestFilterIsProjectionNotDeletion(t *testing.T) {
	c := newRasterChart(t)
	c.Store().Append("s1", []Datum{{Time: 10}, {Time: 20}})
	c.Store().Append("s2", []Datum{{Time: 30}, {Time: 40}, {Time: 50}})
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 5 {
		t.Fatalf("expected 5 spikes before filtering, got %d", got)
	}

	c.SetFilter(regexp.MustCompile(`^s1$`))
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 2 {
		t.Errorf("expected only s1's spikes while filtered, got %d", got)
	}
	if got := c.Store().Len("s2"); got != 3 {
		t.Errorf("expected filtered-out series to keep its data, got %d points", got)
	}

	c.SetFilter(nil)
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "spike"); got != 5 {
		t.Errorf("expected all spikes restored after clearing filter, got %d", got)
	}
}

func TestBandSizeIgnoresFilter(t *testing.T) {
	c := newRasterChart(t)
	c.Store().Append("s1", []Datum{{Time: 10}})
	c.Store().Append("s2", []Datum{{Time: 20}})
	c.Store().Append("s3", []Datum{{Time: 30}})
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	ya := c.Axis("rows").(*axis.CategoryAxis)
	unfiltered := ya.Scale.CategorySize

	c.SetFilter(regexp.MustCompile(`^s1$`))
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := ya.Scale.CategorySize; got != unfiltered {
		t.Errorf("expected band size %v to survive filtering, got %v", unfiltered, got)
	}
}

func TestRasterRejectsContinuousYAxis(t *testing.T) {
	c := New(Config{})
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddContinuousAxis("v", axis.Left)
	c.SetDefaultAxes("t", "v")
	NewRasterPlot(c, "spikes")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	c.Store().Append("s1", []Datum{{Time: 10}})

	err := c.Render()
	if err == nil {
		t.Fatal("expected an axis type error")
	}
	if !strings.Contains(err.Error(), "category") {
		t.Errorf("expected error to name the required axis type, got %q", err.Error())
	}
}

func TestScatterRejectsCategoryYAxis(t *testing.T) {
	c := New(Config{})
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddCategoryAxis("rows", axis.Left)
	c.SetDefaultAxes("t", "rows")
	NewScatterPlot(c, "weights")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	c.Store().Append("w1", []Datum{{Time: 10, Value: 0.5}})

	err := c.Render()
	if err == nil {
		t.Fatal("expected an axis type error")
	}
	if !strings.Contains(err.Error(), "continuous") {
		t.Errorf("expected error to name the required axis type, got %q", err.Error())
	}
}

func TestScatterRenderBuildsLineAndDots(t *testing.T) {
	c := New(Config{})
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddContinuousAxis("v", axis.Left)
	c.SetDefaultAxes("t", "v")
	NewScatterPlot(c, "weights")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	c.Store().Append("w1", []Datum{
		{Time: 10, Value: 0.1},
		{Time: 50, Value: 0.5},
		{Time: 90, Value: 0.3},
	})
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "dot"); got != 3 {
		t.Errorf("expected 3 dots, got %d", got)
	}
	if got := countClass(c, "interp"); got != 1 {
		t.Errorf("expected 1 polyline, got %d", got)
	}
}

func TestZoomClampsScaleFactor(t *testing.T) {
	c := newRasterChart(t)
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	c.ZoomBy(1000, 400, 0)
	rng, ok := c.TimeRange("t")
	if !ok {
		t.Fatal("expected a registered time range")
	}
	if rng.ScaleFactor != maxZoomFactor {
		t.Errorf("expected zoom-out clamp at %v, got %v", maxZoomFactor, rng.ScaleFactor)
	}

	c.ZoomBy(1e-9, 400, 0)
	rng, _ = c.TimeRange("t")
	if rng.ScaleFactor != minZoomFactor {
		t.Errorf("expected zoom-in clamp at %v, got %v", minZoomFactor, rng.ScaleFactor)
	}
}

func TestZoomRespectsModifierGate(t *testing.T) {
	c := New(Config{ZoomModifier: 1 << 0}) // any nonzero modifier set
	c.AddContinuousAxis("t", axis.Bottom)
	c.AddCategoryAxis("rows", axis.Left)
	c.SetDefaultAxes("t", "rows")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	c.ZoomBy(2, 400, 0)
	rng, _ := c.TimeRange("t")
	if rng.ScaleFactor != 1 {
		t.Errorf("expected zoom without the modifier to be ignored, got factor %v", rng.ScaleFactor)
	}
}

func TestPanWithoutAxesIsNoop(t *testing.T) {
	c := New(Config{})
	c.PanBy(25) // must not panic
	if got := len(c.TimeRanges()); got != 0 {
		t.Errorf("expected no ranges to appear, got %d", got)
	}
}

func TestPanShiftsVisibleWindow(t *testing.T) {
	c := newRasterChart(t)
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	before, _ := c.TimeRange("t")
	c.PanBy(50)
	after, _ := c.TimeRange("t")
	if after.Start >= before.Start {
		t.Errorf("expected dragging right to reveal earlier time, got start %v -> %v", before.Start, after.Start)
	}
	if got, want := after.Width(), before.Width(); got != want {
		t.Errorf("expected pan to preserve window width %v, got %v", want, got)
	}
}

func TestAdvanceTimePreservesZoom(t *testing.T) {
	c := newRasterChart(t)
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	c.ZoomBy(0.5, 400, 0)
	zoomed, _ := c.TimeRange("t")
	if zoomed.MatchesOriginal(zoomed.Start, zoomed.End) {
		t.Fatal("expected the range to be zoomed")
	}

	c.advanceTime(20_000)
	after, _ := c.TimeRange("t")
	if after.Start != zoomed.Start || after.End != zoomed.End {
		t.Errorf("expected zoomed interval to survive streaming, got [%v, %v] want [%v, %v]",
			after.Start, after.End, zoomed.Start, zoomed.End)
	}
	if start, end := after.Original(); start != 10_000 || end != 20_000 {
		t.Errorf("expected original to track the stream, got [%v, %v]", start, end)
	}
}

func TestAdvanceTimeSnapsUntouchedRanges(t *testing.T) {
	c := newRasterChart(t)
	c.advanceTime(15_000)
	rng, ok := c.TimeRange("t")
	if !ok {
		t.Fatal("expected a registered time range")
	}
	if rng.Start != 5_000 || rng.End != 15_000 {
		t.Errorf("expected window [5000, 15000], got [%v, %v]", rng.Start, rng.End)
	}
}

func TestEnableMagnifierRejectsBadLens(t *testing.T) {
	c := newRasterChart(t)
	if err := c.EnableMagnifier(BarLens, 50, 0.5); err == nil {
		t.Error("expected invalid lens power to be rejected")
	}
	if got := c.Mode(); got != ModeNone {
		t.Errorf("expected mode unchanged after rejected magnifier, got %v", got)
	}
}

func TestDecorationModesAreExclusive(t *testing.T) {
	c := newRasterChart(t)
	c.EnableTooltip()
	if got := c.Mode(); got != ModeTooltip {
		t.Fatalf("expected tooltip mode, got %v", got)
	}
	c.EnableTracker()
	if got := c.Mode(); got != ModeTracker {
		t.Fatalf("expected tracker mode, got %v", got)
	}
	if err := c.EnableMagnifier(RadialLens, 50, 3); err != nil {
		t.Fatalf("magnifier setup failed: %v", err)
	}
	if got := c.Mode(); got != ModeMagnifier {
		t.Fatalf("expected magnifier mode, got %v", got)
	}
	c.DisableDecorations()
	if got := c.Mode(); got != ModeNone {
		t.Errorf("expected plain mode, got %v", got)
	}
}

func TestSpikeHoverFansOutToHandlers(t *testing.T) {
	c := newRasterChart(t)
	c.Store().Append("s1", []Datum{{Time: 50, Value: 1}})
	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	var entered, left []string
	c.RegisterHandlers("test", HandlerSet{
		OnSeriesEnter: func(series string, d Datum) { entered = append(entered, series) },
		OnSeriesLeave: func(series string) { left = append(left, series) },
	})

	xa := c.Axis("t").(*axis.ContinuousAxis)
	ya := c.Axis("rows").(*axis.CategoryAxis)
	center, ok := ya.Scale.Center("s1")
	if !ok {
		t.Fatal("expected a band for s1")
	}
	pos := f32.Pt(xa.Scale.Apply(50), center)

	c.PointerMove(pos)
	if len(entered) != 1 || entered[0] != "s1" {
		t.Fatalf("expected one enter for s1, got %v", entered)
	}
	c.PointerLeave()
	if len(left) != 1 || left[0] != "s1" {
		t.Errorf("expected one leave for s1, got %v", left)
	}

	c.UnregisterHandlers("test")
	c.PointerMove(pos)
	if len(entered) != 1 {
		t.Errorf("expected no further enters after unregister, got %v", entered)
	}
}

func TestScatterWithoutYAxisSkipsMarks(t *testing.T) {
	c := New(Config{})
	c.AddContinuousAxis("t", axis.Bottom)
	// The default y axis is named but never registered.
	c.SetDefaultAxes("t", "v")
	NewScatterPlot(c, "weights")
	c.Resize(800, 600)
	c.SetTimeRange("t", axis.RangeFor(0, 100))
	c.Store().Append("w1", []Datum{{Time: 10, Value: 0.5}, {Time: 20, Value: 0.7}})

	if err := c.Render(); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := countClass(c, "dot"); got != 0 {
		t.Errorf("expected no dots without a y axis, got %d", got)
	}
	if got := c.Store().Len("w1"); got != 2 {
		t.Errorf("expected the data to stay in the store, got %d points", got)
	}
}

func TestTooltipKeepsDuplicateLines(t *testing.T) {
	c := newRasterChart(t)
	c.EnableTooltip()
	c.tooltip.show(f32.Pt(100, 100), []string{"s1 @ 40 ms", "s1 @ 40 ms"})

	var ys []float32
	scene.Walk(c.Canvas().Root(), func(n *scene.Node) {
		if n.Class() == "tooltip-line" {
			ys = append(ys, n.Y)
		}
	})
	if len(ys) != 2 {
		t.Fatalf("expected 2 tooltip lines for 2 handlers, got %d", len(ys))
	}
	if ys[0] == ys[1] {
		t.Errorf("expected identical lines on distinct rows, both at y=%v", ys[0])
	}
}
