package chart

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ChartData is the unit of work delivered by an async source: the source's
// notion of the current maximum time plus the new points per series. It is
// transient and consumed immediately by the pipeline.
type ChartData struct {
	MaxTime   float64
	NewPoints map[string][]Datum
}

// Provider produces a stream of ChartData at the source's own pace. The
// returned channel must be closed when ctx is cancelled or the source
// completes.
type Provider func(ctx context.Context) <-chan ChartData

// PipelineConfig controls windowing and retention.
type PipelineConfig struct {
	// WindowingTime coalesces source emissions into batches, trading
	// latency for render-call frequency. Defaults to 100ms.
	WindowingTime time.Duration
	// CadenceInterval, when nonzero, advances the time cursor on a fixed
	// wall-clock tick with the max time pinned to "now" in data time units,
	// smoothing charts fed by irregular sources.
	CadenceInterval time.Duration
	// CadenceTimeUnit converts a wall-clock duration into data time units
	// for cadence mode. Defaults to one unit per millisecond.
	CadenceTimeUnit time.Duration
	// DropDataAfter discards points older than this many time units behind
	// the current max time. Zero keeps everything.
	DropDataAfter float64
}

func (cfg PipelineConfig) withDefaults() PipelineConfig {
	if cfg.WindowingTime == 0 {
		cfg.WindowingTime = 100 * time.Millisecond
	}
	if cfg.CadenceTimeUnit == 0 {
		cfg.CadenceTimeUnit = time.Millisecond
	}
	return cfg
}

// PipelineHooks are the pipeline's outbound edges. All hooks are invoked
// from the pipeline goroutine after a whole batch has been merged, never
// mid-batch.
type PipelineHooks struct {
	// OnUpdateData is invoked once per series per batch with the newly
	// arrived points.
	OnUpdateData func(series string, points []Datum)
	// OnUpdateTime is invoked with the advanced time cursor.
	OnUpdateTime func(currentTime float64)
	// Render requests a render pass, typically a window invalidation.
	Render func()
}

// Pipeline subscribes to a Provider, buffers its emissions over the
// windowing interval, and merges each coalesced batch into the store.
type Pipeline struct {
	store *SeriesStore
	cfg   PipelineConfig
	hooks PipelineHooks

	mu          sync.Mutex
	currentTime float64
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewPipeline constructs a pipeline writing into store.
func NewPipeline(store *SeriesStore, cfg PipelineConfig, hooks PipelineHooks) *Pipeline {
	return &Pipeline{
		store: store,
		cfg:   cfg.withDefaults(),
		hooks: hooks,
	}
}

// CurrentTime reports the time cursor as of the last processed batch.
func (p *Pipeline) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime
}

// Subscribe begins consuming the source. Subscribing while already
// subscribed restarts: the previous subscription is cancelled and the store
// and time cursor are reset, matching the contract that a re-subscribe is a
// full restart rather than a resume.
//
// The returned cancel function is idempotent and, once it returns, no
// further hook invocations occur.
func (p *Pipeline) Subscribe(ctx context.Context, src Provider) (cancel func()) {
	p.Unsubscribe()

	ctx, ctxCancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = ctxCancel
	p.done = done
	p.currentTime = 0
	p.mu.Unlock()
	p.store.Reset()

	go p.run(ctx, src, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			ctxCancel()
			<-done
		})
	}
}

// Unsubscribe cancels the active subscription, if any. Safe to call
// repeatedly.
func (p *Pipeline) Unsubscribe() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Pipeline) run(ctx context.Context, src Provider, done chan struct{}) {
	defer close(done)

	ch := src(ctx)
	window := time.NewTicker(p.cfg.WindowingTime)
	defer window.Stop()

	var cadence *time.Ticker
	var cadenceC <-chan time.Time
	var cadenceStart time.Time
	if p.cfg.CadenceInterval > 0 {
		cadence = time.NewTicker(p.cfg.CadenceInterval)
		cadenceC = cadence.C
		cadenceStart = time.Now()
		defer cadence.Stop()
	}

	var buffer []ChartData
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-ch:
			if !ok {
				// Source completed: flush what we have and stop.
				if ctx.Err() == nil && len(buffer) > 0 {
					p.process(buffer, nil)
				}
				return
			}
			buffer = append(buffer, d)
		case <-window.C:
			if ctx.Err() != nil {
				return
			}
			if len(buffer) > 0 && cadence == nil {
				p.process(buffer, nil)
				buffer = buffer[:0]
			}
		case now := <-cadenceC:
			if ctx.Err() != nil {
				return
			}
			// Cadence mode pins the cursor to wall-clock time so the chart
			// advances even when the source is quiet.
			elapsed := float64(now.Sub(cadenceStart) / p.cfg.CadenceTimeUnit)
			p.process(buffer, &elapsed)
			buffer = buffer[:0]
		}
	}
}

// process merges a coalesced batch into the store, trims aged-out data,
// advances the time cursor, and requests exactly one render pass. All series
// are merged before any render is requested, so partial renders mid-batch
// cannot occur.
func (p *Pipeline) process(batches []ChartData, pinnedTime *float64) {
	p.mu.Lock()
	maxTime := p.currentTime
	p.mu.Unlock()

	touched := make(map[string][]Datum)
	for _, batch := range batches {
		for name, points := range batch.NewPoints {
			p.store.Append(name, points)
			touched[name] = append(touched[name], points...)
		}
		if batch.MaxTime > maxTime {
			maxTime = batch.MaxTime
		}
	}
	if pinnedTime != nil && *pinnedTime > maxTime {
		maxTime = *pinnedTime
	}

	if p.hooks.OnUpdateData != nil {
		names := make([]string, 0, len(touched))
		for name := range touched {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p.hooks.OnUpdateData(name, touched[name])
		}
	}

	if p.cfg.DropDataAfter > 0 {
		p.store.TrimAllOlderThan(maxTime - p.cfg.DropDataAfter)
	}

	p.mu.Lock()
	p.currentTime = maxTime
	p.mu.Unlock()

	if p.hooks.OnUpdateTime != nil {
		p.hooks.OnUpdateTime(maxTime)
	}
	if p.hooks.Render != nil {
		p.hooks.Render()
	}
}
