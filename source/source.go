// Package source provides async data sources that feed streaming charts:
// adapters for caller-owned channels and functions, a replay source that
// tails a growing CSV recording, and a synthetic generator for demos.
package source

import (
	"context"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Func adapts a provider function. It exists so that call sites read
// source.Func(...) alongside the other constructors in this package.
func Func(f func(ctx context.Context) <-chan chart.ChartData) chart.Provider {
	return f
}

// Recorded emits the given batches in order and then completes.
func Recorded(batches []chart.ChartData) chart.Provider {
	return func(ctx context.Context) <-chan chart.ChartData {
		out := make(chan chart.ChartData)
		go func() {
			defer close(out)
			for _, b := range batches {
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// Channel adapts a caller-owned channel into a provider. The subscription
// ends when the channel closes or the context is cancelled; the underlying
// channel itself is never closed by this package.
func Channel(ch <-chan chart.ChartData) chart.Provider {
	return func(ctx context.Context) <-chan chart.ChartData {
		out := make(chan chart.ChartData)
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- d:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		return out
	}
}
