/*Package lab implements the measurement scripting layer.

Scripts compose five verbs: Move a writable parameter to a setpoint at a
rate, Measure an ordered list of readable parameters, Sweep a parameter
while measuring, WaitFor a parameter to stabilize, and Record measurements
on a fixed interval.  Sweep and Record write the delimited data files that
package dataset parses and the live plotter watches.

All parameters come from a param.Registry resolved at configuration time;
the verbs never know what hardware they are talking to.
*/
package lab

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/util"
)

const (
	// moveStep is the pacing of setpoint updates during a Move
	moveStep = 20 * time.Millisecond

	// readbackTol is the rounding unit used when comparing a readback
	// against a setpoint; instruments echo fewer digits than float64
	readbackTol = 0.01

	// setpointUnit is the rounding applied to generated setpoint lists
	setpointUnit = 0.001
)

// Measurement is one entry of an ordered measurement list
type Measurement struct {
	// ID is the stable identifier, e.g. "kbg.dcv"; it becomes the
	// column header in data files
	ID string

	R param.Readable
}

// List is an ordered set of measurements.  Order matters: it fixes the
// column order of data files.
type List []Measurement

// NewList resolves ids against reg in order
func NewList(reg *param.Registry, ids ...string) (List, error) {
	l := make(List, 0, len(ids))
	for _, id := range ids {
		r, err := reg.Readable(id)
		if err != nil {
			return nil, err
		}
		l = append(l, Measurement{ID: id, R: r})
	}
	return l, nil
}

// Header returns the column names in order
func (l List) Header() []string {
	h := make([]string, len(l))
	for i, m := range l {
		h[i] = m.ID
	}
	return h
}

// Measure reads every parameter in order and returns the values
func (l List) Measure() ([]float64, error) {
	out := make([]float64, len(l))
	for i, m := range l {
		v, err := m.R.Read()
		if err != nil {
			return nil, fmt.Errorf("measuring %s: %v", m.ID, err)
		}
		out[i] = v
	}
	return out, nil
}

// Move brings target to setpoint at rate (units per second).
//
// If the target's instrument ramps internally (param.Ramper), the ramp is
// delegated to it and Move polls until the readback settles at the
// setpoint.  Otherwise Move steps the setpoint itself along a rounded
// linspace, pacing steps with a rate limiter and waiting for each readback
// before the next step, like a hand on an analog dial.
func Move(ctx context.Context, target param.Settable, setpoint, rateUPS float64) error {
	if rateUPS <= 0 {
		return fmt.Errorf("lab: move rate must be positive, got %v", rateUPS)
	}
	if r, ok := target.(param.Ramper); ok {
		if err := r.RampTo(setpoint, rateUPS); err != nil {
			return err
		}
		return waitSettled(ctx, target, setpoint, 100*time.Millisecond)
	}

	cur, err := target.Read()
	if err != nil {
		return err
	}
	nsteps := int(math.Round(math.Abs(setpoint-cur) / rateUPS / moveStep.Seconds()))
	if nsteps == 0 {
		// already there
		return nil
	}
	curve := util.Linspace(cur, setpoint, nsteps, setpointUnit)
	lim := rate.NewLimiter(rate.Every(moveStep), 1)
	for _, v := range curve {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		if err := target.Write(v); err != nil {
			return err
		}
		if err := waitSettled(ctx, target, v, moveStep); err != nil {
			return err
		}
	}
	return nil
}

// waitSettled polls target until its readback matches setpoint to within
// readbackTol, checking every interval
func waitSettled(ctx context.Context, target param.Readable, setpoint float64, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		cur, err := target.Read()
		if err != nil {
			return err
		}
		if util.Round(cur, readbackTol) == util.Round(setpoint, readbackTol) {
			return nil
		}
	}
}

// WaitFor blocks until r has stayed within threshold of setpoint for at
// least hold, polling every interval.  It is used to wait out thermal or
// magnet settling before a measurement.
func WaitFor(ctx context.Context, r param.Readable, setpoint, threshold float64, hold, interval time.Duration) error {
	var stable time.Duration
	for stable < hold {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		cur, err := r.Read()
		if err != nil {
			return err
		}
		if math.Abs(cur-setpoint) <= threshold {
			stable += interval
		} else {
			stable = 0
		}
	}
	return nil
}
