package chart

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// sliceProvider emits the given batches and then completes, which makes the
// pipeline flush deterministically without depending on the windowing timer.
func sliceProvider(batches ...ChartData) Provider {
	return func(ctx context.Context) <-chan ChartData {
		ch := make(chan ChartData)
		go func() {
			defer close(ch)
			for _, b := range batches {
				select {
				case ch <- b:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestPipelineMergesBeforeRender(t *testing.T) {
	st := NewSeriesStore()
	var updates []string
	rendered := make(chan struct{})
	var cursor float64
	p := NewPipeline(st, PipelineConfig{WindowingTime: time.Hour}, PipelineHooks{
		OnUpdateData: func(series string, points []Datum) {
			updates = append(updates, series)
		},
		OnUpdateTime: func(current float64) { cursor = current },
		Render: func() {
			// Everything below asserts state visible at render time.
			close(rendered)
		},
	})

	cancel := p.Subscribe(context.Background(), sliceProvider(ChartData{
		MaxTime: 100,
		NewPoints: map[string][]Datum{
			"spikes":  {{Time: 90, Value: 1}},
			"weights": {{Time: 90, Value: 0.5}},
		},
	}))
	defer cancel()
	waitFor(t, rendered, "render")

	if got := st.Len("spikes"); got != 1 {
		t.Errorf("expected 1 spike point at render time, got %d", got)
	}
	if got := st.Len("weights"); got != 1 {
		t.Errorf("expected 1 weight point at render time, got %d", got)
	}
	sort.Strings(updates)
	if diff := cmp.Diff([]string{"spikes", "weights"}, updates); diff != "" {
		t.Errorf("unexpected update callbacks (-want +got):\n%s", diff)
	}
	if cursor != 100 {
		t.Errorf("expected time cursor 100, got %v", cursor)
	}
}

func TestPipelineSingleRenderPerBatch(t *testing.T) {
	st := NewSeriesStore()
	renders := 0
	rendered := make(chan struct{})
	p := NewPipeline(st, PipelineConfig{WindowingTime: time.Hour}, PipelineHooks{
		Render: func() {
			renders++
			close(rendered)
		},
	})
	// Several emissions in one window must coalesce into one render.
	batches := make([]ChartData, 5)
	for i := range batches {
		batches[i] = ChartData{
			MaxTime:   float64(i),
			NewPoints: map[string][]Datum{"a": {{Time: float64(i)}}},
		}
	}
	cancel := p.Subscribe(context.Background(), sliceProvider(batches...))
	waitFor(t, rendered, "render")
	cancel()
	if renders != 1 {
		t.Errorf("expected exactly 1 render for the coalesced batch, got %d", renders)
	}
	if got := st.Len("a"); got != 5 {
		t.Errorf("expected all 5 points merged, got %d", got)
	}
}

func TestPipelineDropsAgedData(t *testing.T) {
	st := NewSeriesStore()
	rendered := make(chan struct{})
	p := NewPipeline(st, PipelineConfig{
		WindowingTime: time.Hour,
		DropDataAfter: 500,
	}, PipelineHooks{
		Render: func() { close(rendered) },
	})
	cancel := p.Subscribe(context.Background(), sliceProvider(ChartData{
		MaxTime: 1000,
		NewPoints: map[string][]Datum{
			"a": {{Time: 100}, {Time: 400}, {Time: 600}, {Time: 900}},
		},
	}))
	defer cancel()
	waitFor(t, rendered, "render")

	got := st.SelectInRange("a", 0, 1000)
	times := make([]float64, len(got))
	for i, d := range got {
		times[i] = d.Time
	}
	if diff := cmp.Diff([]float64{600, 900}, times); diff != "" {
		t.Errorf("expected points older than 500 units dropped (-want +got):\n%s", diff)
	}
}

func TestPipelineCancelIsIdempotent(t *testing.T) {
	st := NewSeriesStore()
	p := NewPipeline(st, PipelineConfig{WindowingTime: time.Millisecond}, PipelineHooks{})
	cancel := p.Subscribe(context.Background(), func(ctx context.Context) <-chan ChartData {
		ch := make(chan ChartData)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	})
	cancel()
	cancel() // must not block or panic
}

func TestPipelineNoCallbacksAfterCancel(t *testing.T) {
	st := NewSeriesStore()
	calls := make(chan string, 64)
	p := NewPipeline(st, PipelineConfig{WindowingTime: time.Millisecond}, PipelineHooks{
		OnUpdateData: func(series string, points []Datum) { calls <- "data" },
		OnUpdateTime: func(current float64) { calls <- "time" },
		Render:       func() { calls <- "render" },
	})
	cancel := p.Subscribe(context.Background(), func(ctx context.Context) <-chan ChartData {
		ch := make(chan ChartData)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	})
	cancel()
	// cancel only returns once the pipeline goroutine has exited, so any
	// callback arriving now is a bug.
	deadline := time.After(20 * time.Millisecond)
	for {
		select {
		case kind := <-calls:
			t.Fatalf("received %s callback after cancel returned", kind)
		case <-deadline:
			return
		}
	}
}

func TestPipelineResubscribeRestarts(t *testing.T) {
	st := NewSeriesStore()
	rendered := make(chan struct{}, 2)
	p := NewPipeline(st, PipelineConfig{WindowingTime: time.Hour}, PipelineHooks{
		Render: func() { rendered <- struct{}{} },
	})

	cancel := p.Subscribe(context.Background(), sliceProvider(ChartData{
		MaxTime:   50,
		NewPoints: map[string][]Datum{"a": {{Time: 40}}},
	}))
	waitFor(t, rendered, "first render")
	cancel()

	cancel = p.Subscribe(context.Background(), sliceProvider(ChartData{
		MaxTime:   10,
		NewPoints: map[string][]Datum{"b": {{Time: 5}}},
	}))
	defer cancel()
	waitFor(t, rendered, "second render")

	if got := st.Len("a"); got != 0 {
		t.Errorf("expected restart to discard old series, got %d points", got)
	}
	if got := st.Len("b"); got != 1 {
		t.Errorf("expected new subscription's data, got %d points", got)
	}
	if got := p.CurrentTime(); got != 10 {
		t.Errorf("expected cursor reset to new stream's time, got %v", got)
	}
}

func TestPipelineCadencePinsCursor(t *testing.T) {
	st := NewSeriesStore()
	times := make(chan float64, 64)
	p := NewPipeline(st, PipelineConfig{
		WindowingTime:   time.Hour,
		CadenceInterval: 5 * time.Millisecond,
		CadenceTimeUnit: time.Millisecond,
	}, PipelineHooks{
		OnUpdateTime: func(current float64) { times <- current },
	})
	cancel := p.Subscribe(context.Background(), func(ctx context.Context) <-chan ChartData {
		ch := make(chan ChartData)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	})
	defer cancel()

	// Even with a silent source, cadence mode must advance the cursor.
	var first, second float64
	select {
	case first = <-times:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first cadence tick")
	}
	select {
	case second = <-times:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for second cadence tick")
	}
	if second <= first {
		t.Errorf("expected cursor to advance between ticks, got %v then %v", first, second)
	}
}
