package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Replay tails a CSV recording of "time,series,value" rows, emitting one
// ChartData per row. When it reaches the end of the file it waits for the
// file to grow instead of completing, so a recording that is still being
// written streams live. Rows are only parsed once their trailing newline has
// been written.
func Replay(path string) chart.Provider {
	return func(ctx context.Context) <-chan chart.ChartData {
		out := make(chan chart.ChartData)
		go func() {
			defer close(out)
			if err := replay(ctx, path, out); err != nil {
				log.Printf("replaying %q: %v", path, err)
			}
		}()
		return out
	}
}

func replay(ctx context.Context, path string, out chan<- chart.ChartData) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed opening recording: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed creating file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed watching recording: %w", err)
	}

	csvReader := csv.NewReader(newLineReader(f))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

readLoop:
	for {
		rec, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				for {
					select {
					case <-ctx.Done():
						return nil
					case ev, ok := <-watcher.Events:
						if !ok {
							return nil
						}
						if ev.Op == fsnotify.Write {
							continue readLoop
						}
					}
				}
			}
			return fmt.Errorf("failed reading recording: %w", err)
		}
		d, ok := parseRow(rec)
		if !ok {
			// Header rows and malformed rows are skipped, not fatal.
			continue
		}
		select {
		case out <- d:
		case <-ctx.Done():
			return nil
		}
	}
}

// ReadRecording parses a complete CSV recording into batches, one per row.
// Unlike Replay it does not tail the input; it is meant for recordings
// handed over as a finished stream, such as files picked in a file dialog.
func ReadRecording(r io.Reader) ([]chart.ChartData, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	var out []chart.ChartData
	for {
		rec, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading recording: %w", err)
		}
		if d, ok := parseRow(rec); ok {
			out = append(out, d)
		}
	}
}

func parseRow(rec []string) (chart.ChartData, bool) {
	if len(rec) < 3 {
		return chart.ChartData{}, false
	}
	t, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return chart.ChartData{}, false
	}
	v, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return chart.ChartData{}, false
	}
	return chart.ChartData{
		MaxTime: t,
		NewPoints: map[string][]chart.Datum{
			rec[1]: {{Time: t, Value: v}},
		},
	}, true
}
