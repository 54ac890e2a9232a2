// Command streamviz-demo shows a spike raster and a weight-trajectory chart
// streaming side by side, fed either by a synthetic generator or by a CSV
// recording of "time,series,value" rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/streamviz/axis"
	"git.sr.ht/~whereswaldon/streamviz/chart"
	"git.sr.ht/~whereswaldon/streamviz/source"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

const (
	modePlain     = "plain"
	modeTooltip   = "tooltip"
	modeTracker   = "tracker"
	modeMagnifier = "magnify"
)

var spikeSeries = []string{"unit-1", "unit-2", "unit-3", "unit-4", "unit-5", "unit-6"}
var weightSeries = []string{"w-in", "w-rec", "w-out"}

// UI holds the state of and draws the top-level UI.
type UI struct {
	th   *material.Theme
	expl *explorer.Explorer

	raster  *chart.Chart
	weights *chart.Chart
	rasterW *chart.Widget
	weightW *chart.Widget

	spikeSrc  chart.Provider
	weightSrc chart.Provider
	cancels   []func()
	paused    bool

	pauseBtn widget.Clickable
	openBtn  widget.Clickable
	mode     widget.Enum

	times       chan float64
	timeStream  *stream.Stream[float64]
	currentTime float64
}

func NewUI(ctx context.Context, w *app.Window, expl *explorer.Explorer, replayPath string) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		th:    th,
		expl:  expl,
		mode:  widget.Enum{Value: modeTooltip},
		times: make(chan float64, 1),
	}

	ui.raster = chart.New(chart.Config{
		TimeWindow: 10_000,
		Pipeline: chart.PipelineConfig{
			CadenceInterval: 100 * time.Millisecond,
			DropDataAfter:   60_000,
		},
		OnUpdateTime: ui.pushTime,
	})
	ui.raster.AddContinuousAxis("time", axis.Bottom)
	ui.raster.AddCategoryAxis("units", axis.Left)
	ui.raster.SetDefaultAxes("time", "units")
	chart.NewRasterPlot(ui.raster, "spikes")
	ui.raster.RegisterHandlers("demo", chart.HandlerSet{
		TooltipContent: func(series string, d chart.Datum) string {
			return fmt.Sprintf("%s @ %.0f ms", series, d.Time)
		},
	})
	ui.raster.EnableTooltip()
	ui.raster.SetInvalidate(w.Invalidate)
	ui.rasterW = chart.NewWidget(ui.raster, nil)

	ui.weights = chart.New(chart.Config{
		TimeWindow: 10_000,
		Pipeline: chart.PipelineConfig{
			CadenceInterval: 100 * time.Millisecond,
			DropDataAfter:   60_000,
		},
	})
	ui.weights.AddContinuousAxis("time", axis.Bottom)
	ui.weights.AddContinuousAxis("value", axis.Left)
	ui.weights.SetDefaultAxes("time", "value")
	chart.NewScatterPlot(ui.weights, "weights")
	ui.weights.SetInvalidate(w.Invalidate)
	ui.weightW = chart.NewWidget(ui.weights, nil)

	if replayPath != "" {
		ui.spikeSrc = source.Replay(replayPath)
		ui.weightSrc = source.Replay(replayPath)
	} else {
		ui.spikeSrc = source.Synthetic(source.SyntheticConfig{Spikes: spikeSeries})
		ui.weightSrc = source.Synthetic(source.SyntheticConfig{Weights: weightSeries})
	}
	ui.subscribe(ctx)

	controller := stream.NewController(ctx, w.Invalidate)
	ui.timeStream = stream.New(controller, func(ctx context.Context) <-chan float64 {
		return ui.times
	})
	return ui
}

func (ui *UI) pushTime(ranges map[string]axis.ContinuousRange) {
	r, ok := ranges["time"]
	if !ok {
		return
	}
	_, end := r.Original()
	select {
	case ui.times <- end:
	default:
	}
}

func (ui *UI) subscribe(ctx context.Context) {
	ui.cancels = append(ui.cancels,
		ui.raster.Subscribe(ctx, ui.spikeSrc),
		ui.weights.Subscribe(ctx, ui.weightSrc),
	)
}

func (ui *UI) unsubscribe() {
	for _, cancel := range ui.cancels {
		cancel()
	}
	ui.cancels = ui.cancels[:0]
}

// Update processes this frame's UI events.
func (ui *UI) Update(gtx C, ctx context.Context) {
	ui.timeStream.ReadInto(gtx, &ui.currentTime, 0)

	if ui.pauseBtn.Clicked(gtx) {
		if ui.paused {
			ui.subscribe(ctx)
		} else {
			ui.unsubscribe()
		}
		ui.paused = !ui.paused
	}
	if ui.openBtn.Clicked(gtx) {
		go ui.openRecording(ctx)
	}
	if ui.mode.Update(gtx) {
		switch ui.mode.Value {
		case modePlain:
			ui.raster.DisableDecorations()
		case modeTooltip:
			ui.raster.EnableTooltip()
		case modeTracker:
			ui.raster.EnableTracker()
		case modeMagnifier:
			if err := ui.raster.EnableMagnifier(chart.BarLens, 60, 3); err != nil {
				log.Printf("enabling magnifier: %v", err)
			}
		}
	}
}

// openRecording runs the blocking file dialog off the UI goroutine, then
// restarts both charts on the picked recording.
func (ui *UI) openRecording(ctx context.Context) {
	file, err := ui.expl.ChooseFile(".csv")
	if err != nil {
		log.Printf("choosing recording: %v", err)
		return
	}
	defer file.Close()
	batches, err := source.ReadRecording(file)
	if err != nil {
		log.Printf("reading recording: %v", err)
		return
	}
	ui.spikeSrc = source.Recorded(batches)
	ui.weightSrc = source.Recorded(batches)
	ui.unsubscribe()
	ui.subscribe(ctx)
	ui.paused = false
}

func (ui *UI) layoutControls(gtx C) D {
	icon := pauseIcon
	if ui.paused {
		icon = playIcon
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(material.IconButton(ui.th, &ui.pauseBtn, icon, "pause").Layout),
		layout.Rigid(layout.Spacer{Width: 8}.Layout),
		layout.Rigid(material.Button(ui.th, &ui.openBtn, "Open Recording").Layout),
		layout.Rigid(layout.Spacer{Width: 16}.Layout),
		layout.Rigid(material.RadioButton(ui.th, &ui.mode, modePlain, "Plain").Layout),
		layout.Rigid(material.RadioButton(ui.th, &ui.mode, modeTooltip, "Tooltip").Layout),
		layout.Rigid(material.RadioButton(ui.th, &ui.mode, modeTracker, "Tracker").Layout),
		layout.Rigid(material.RadioButton(ui.th, &ui.mode, modeMagnifier, "Magnifier").Layout),
		layout.Rigid(layout.Spacer{Width: 16}.Layout),
		layout.Rigid(material.Body2(ui.th, fmt.Sprintf("t = %.0f ms", ui.currentTime)).Layout),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C, ctx context.Context) D {
	ui.Update(gtx, ctx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutControls),
		layout.Flexed(1, func(gtx C) D {
			return ui.rasterW.Layout(gtx, ui.th)
		}),
		layout.Flexed(1, func(gtx C) D {
			return ui.weightW.Layout(gtx, ui.th)
		}),
	)
}

func loop(w *app.Window, replayPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	expl := explorer.NewExplorer(w)
	ui := NewUI(ctx, w, expl, replayPath)
	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case system.DestroyEvent:
			ui.unsubscribe()
			return ev.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, ev)
			ui.Layout(gtx, ctx)
			ev.Frame(gtx.Ops)
		}
	}
}

func main() {
	replayPath := flag.String("replay", "", "CSV recording to replay instead of generating synthetic data")
	flag.Parse()
	go func() {
		w := app.NewWindow(app.Title("streamviz demo"))
		if err := loop(w, *replayPath); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
