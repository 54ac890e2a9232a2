package source

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

func TestChannelForwardsUntilClose(t *testing.T) {
	in := make(chan chart.ChartData, 2)
	in <- chart.ChartData{MaxTime: 1}
	in <- chart.ChartData{MaxTime: 2}
	close(in)

	out := Channel(in)(context.Background())
	var got []float64
	for d := range out {
		got = append(got, d.MaxTime)
	}
	if diff := cmp.Diff([]float64{1, 2}, got); diff != "" {
		t.Errorf("unexpected forwarded batches (-want +got):\n%s", diff)
	}
}

func TestChannelStopsOnCancel(t *testing.T) {
	in := make(chan chart.ChartData)
	ctx, cancel := context.WithCancel(context.Background())
	out := Channel(in)(ctx)
	cancel()
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected no data after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for provider to stop")
	}
}

func TestParseRow(t *testing.T) {
	type testcase struct {
		name string
		rec  []string
		want chart.ChartData
		ok   bool
	}
	for _, tc := range []testcase{
		{
			name: "valid row",
			rec:  []string{"10.5", "unit-3", "0.25"},
			want: chart.ChartData{
				MaxTime: 10.5,
				NewPoints: map[string][]chart.Datum{
					"unit-3": {{Time: 10.5, Value: 0.25}},
				},
			},
			ok: true,
		},
		{name: "header row", rec: []string{"time", "series", "value"}},
		{name: "short row", rec: []string{"10", "a"}},
		{name: "bad value", rec: []string{"10", "a", "x"}},
	} {
		got, ok := parseRow(tc.rec)
		if ok != tc.ok {
			t.Errorf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestSyntheticEmitsOrderedBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := Synthetic(SyntheticConfig{
		Spikes:   []string{"u1", "u2"},
		Weights:  []string{"w1"},
		Interval: 5 * time.Millisecond,
		Seed:     42,
		// High rate so the first batches are overwhelmingly likely to
		// contain spikes.
		SpikeRate: 5000,
	})(ctx)

	var prevMax float64
	sawSpike, sawWeight := false, false
	for i := 0; i < 5; i++ {
		select {
		case d := <-out:
			if d.MaxTime <= prevMax {
				t.Errorf("expected MaxTime to advance, got %v after %v", d.MaxTime, prevMax)
			}
			for name, points := range d.NewPoints {
				last := 0.0
				for _, p := range points {
					if p.Time > d.MaxTime {
						t.Errorf("%s: point at %v beyond batch max %v", name, p.Time, d.MaxTime)
					}
					if p.Time < last {
						t.Errorf("%s: points out of order: %v after %v", name, p.Time, last)
					}
					last = p.Time
				}
				switch name {
				case "u1", "u2":
					sawSpike = true
				case "w1":
					sawWeight = true
				}
			}
			prevMax = d.MaxTime
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for synthetic batch")
		}
	}
	if !sawSpike {
		t.Error("expected at least one spike batch")
	}
	if !sawWeight {
		t.Error("expected weight points in every batch")
	}
}
