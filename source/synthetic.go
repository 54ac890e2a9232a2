package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// SyntheticConfig describes a generated data set: a set of Poisson spike
// trains plus a set of random-walk scalar series, both in milliseconds of
// data time.
type SyntheticConfig struct {
	// Spikes are the names of the spike trains to generate.
	Spikes []string
	// SpikeRate is the expected spike count per second per train. Defaults
	// to 8.
	SpikeRate float64
	// Weights are the names of the random-walk series to generate.
	Weights []string
	// WalkStep is the standard deviation of each random-walk increment.
	// Defaults to 0.02.
	WalkStep float64
	// Interval is the emission period. Defaults to 50ms.
	Interval time.Duration
	// Seed makes the stream reproducible. Zero seeds from the current time.
	Seed int64
}

func (cfg SyntheticConfig) withDefaults() SyntheticConfig {
	if cfg.SpikeRate == 0 {
		cfg.SpikeRate = 8
	}
	if cfg.WalkStep == 0 {
		cfg.WalkStep = 0.02
	}
	if cfg.Interval == 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg
}

// Synthetic generates spike trains and weight trajectories on a ticker until
// the subscription is cancelled.
func Synthetic(cfg SyntheticConfig) chart.Provider {
	cfg = cfg.withDefaults()
	return func(ctx context.Context) <-chan chart.ChartData {
		out := make(chan chart.ChartData)
		go func() {
			defer close(out)
			rng := rand.New(rand.NewSource(cfg.Seed))
			walks := make(map[string]float64, len(cfg.Weights))
			for _, name := range cfg.Weights {
				walks[name] = rng.Float64()
			}
			ticker := time.NewTicker(cfg.Interval)
			defer ticker.Stop()
			start := time.Now()
			prev := 0.0
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					elapsed := float64(now.Sub(start)) / float64(time.Millisecond)
					d := chart.ChartData{
						MaxTime:   elapsed,
						NewPoints: make(map[string][]chart.Datum),
					}
					for _, name := range cfg.Spikes {
						times := poissonTimes(rng, cfg.SpikeRate, prev, elapsed)
						if len(times) == 0 {
							continue
						}
						points := make([]chart.Datum, len(times))
						for i, t := range times {
							points[i] = chart.Datum{Time: t, Value: 1}
						}
						d.NewPoints[name] = points
					}
					for _, name := range cfg.Weights {
						walks[name] += rng.NormFloat64() * cfg.WalkStep
						d.NewPoints[name] = []chart.Datum{{Time: elapsed, Value: walks[name]}}
					}
					prev = elapsed
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

// poissonTimes draws the spike times falling in (from, to] for a homogeneous
// Poisson process with the given rate in events per second. Times are in
// milliseconds and returned sorted.
func poissonTimes(rng *rand.Rand, ratePerSecond, from, to float64) []float64 {
	if to <= from {
		return nil
	}
	var times []float64
	t := from
	ratePerMS := ratePerSecond / 1000
	for {
		// Exponential inter-arrival gaps.
		t += -math.Log(1-rng.Float64()) / ratePerMS
		if t > to {
			return times
		}
		times = append(times, t)
	}
}
