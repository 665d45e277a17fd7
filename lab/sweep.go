package lab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/util"
)

// defaultSettle is the wait between reaching a setpoint and measuring
const defaultSettle = 1 * time.Second

// SweepConfig describes one sweep: drive Target across [Start, Stop] in
// Points steps at Rate, measuring List at every point.
type SweepConfig struct {
	Target   param.Settable
	TargetID string // column header for the swept variable

	Start, Stop float64
	Rate        float64 // move rate, units per second
	Points      int

	Filename string
	List     List

	// Settle is the wait after each move before measuring;
	// zero means the default of one second
	Settle time.Duration

	// Progress, if set, is called before each point is taken
	Progress func(point, total int, setpoint float64)
}

// Sweep runs cfg and returns the path actually written.
//
// If cfg.Filename already exists, "_1" is appended to its stem (repeatedly
// if needed) rather than overwriting an earlier run.  Rows are flushed to
// disk as they are taken so a live plotter polling the file sees it grow.
func Sweep(ctx context.Context, cfg SweepConfig) (string, error) {
	if cfg.Points < 1 {
		return "", fmt.Errorf("lab: sweep needs at least one point, got %d", cfg.Points)
	}
	if cfg.TargetID == "" {
		cfg.TargetID = "sweepdev"
	}
	if cfg.Settle == 0 {
		cfg.Settle = defaultSettle
	}

	path := uncollide(cfg.Filename)
	f, err := create(path, append([]string{cfg.TargetID}, cfg.List.Header()...))
	if err != nil {
		return "", err
	}
	defer f.Close()

	// move to the initial value before the first measurement
	if err := Move(ctx, cfg.Target, cfg.Start, cfg.Rate); err != nil {
		return path, err
	}

	curve := util.Linspace(cfg.Start, cfg.Stop, cfg.Points, setpointUnit)
	for i, sp := range curve {
		if cfg.Progress != nil {
			cfg.Progress(i, cfg.Points, sp)
		}
		if err := Move(ctx, cfg.Target, sp, cfg.Rate); err != nil {
			return path, err
		}
		select {
		case <-ctx.Done():
			return path, ctx.Err()
		case <-time.After(cfg.Settle):
		}
		vals, err := cfg.List.Measure()
		if err != nil {
			return path, err
		}
		if err := writeRow(f, append([]float64{sp}, vals...)); err != nil {
			return path, err
		}
	}
	return path, nil
}

// Record measures the list every interval for points iterations, writing a
// "time" column of elapsed seconds plus one column per measurement
func Record(ctx context.Context, interval time.Duration, points int, filename string, list List) (string, error) {
	path := uncollide(filename)
	f, err := create(path, append([]string{"time"}, list.Header()...))
	if err != nil {
		return "", err
	}
	defer f.Close()

	for i := 0; i < points; i++ {
		vals, err := list.Measure()
		if err != nil {
			return path, err
		}
		elapsed := float64(i) * interval.Seconds()
		if err := writeRow(f, append([]float64{elapsed}, vals...)); err != nil {
			return path, err
		}
		select {
		case <-ctx.Done():
			return path, ctx.Err()
		case <-time.After(interval):
		}
	}
	return path, nil
}

// uncollide appends _1 to the filename stem until it no longer exists
func uncollide(path string) string {
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		ext := filepath.Ext(path)
		path = strings.TrimSuffix(path, ext) + "_1" + ext
	}
}

// create opens a new data file and writes the header row
func create(path string, header []string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString(strings.Join(header, ", ") + "\n"); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// writeRow appends one sample row and syncs so concurrent readers see it
func writeRow(f *os.File, vals []float64) error {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if _, err := f.WriteString(strings.Join(strs, ", ") + "\n"); err != nil {
		return err
	}
	return f.Sync()
}
