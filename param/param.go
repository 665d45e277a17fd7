/*Package param defines capability interfaces for instrument parameters.

A parameter is a single scalar quantity on an instrument, e.g. the source
voltage of a source meter or the X channel of a lock-in.  Instruments expose
parameters under stable identifiers; the measurement layer only ever sees the
capability interfaces, never the concrete driver, so a sweep script is
indifferent to which instrument is behind "kbg.dcv".

Capabilities are resolved once, at configuration time, into a Registry.
Failures to resolve happen at startup with a useful error, not mid-sweep.
*/
package param

import (
	"fmt"
	"sort"
)

// Readable is a parameter whose current value can be measured
type Readable interface {
	Read() (float64, error)
}

// Writable is a parameter which can be set to a new value
type Writable interface {
	Write(float64) error
}

// Settable is a parameter that is both readable and writable; only these can
// be moved, since moving requires reading the current value first
type Settable interface {
	Readable
	Writable
}

// Ramper is a parameter whose instrument ramps to a setpoint internally at a
// programmed rate (magnet power supplies).  The measurement layer delegates
// to RampTo instead of stepping the setpoint itself.
type Ramper interface {
	Settable

	// RampTo commands the instrument to go to setpoint at rate
	// (units per second) and returns when commanded, not when reached
	RampTo(setpoint, rate float64) error
}

// ReadFunc adapts an ordinary function to the Readable interface
type ReadFunc func() (float64, error)

// Read implements Readable
func (f ReadFunc) Read() (float64, error) { return f() }

// WriteFunc adapts an ordinary function to the Writable interface
type WriteFunc func(float64) error

// Write implements Writable
func (f WriteFunc) Write(v float64) error { return f(v) }

type entry struct {
	v interface{}
	r Readable
	w Writable
}

// Registry maps stable identifiers ("device.variable") to parameter
// capabilities.  It is populated at configuration time and read-only after.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register adds a parameter under id, discovering which capabilities v
// satisfies.  It errors on a duplicate id or a value with no capabilities.
func (reg *Registry) Register(id string, v interface{}) error {
	if _, ok := reg.entries[id]; ok {
		return fmt.Errorf("param: duplicate identifier %q", id)
	}
	e := entry{v: v}
	if r, ok := v.(Readable); ok {
		e.r = r
	}
	if w, ok := v.(Writable); ok {
		e.w = w
	}
	if e.r == nil && e.w == nil {
		return fmt.Errorf("param: %q is neither readable nor writable", id)
	}
	reg.entries[id] = e
	return nil
}

// Readable resolves id to its read capability
func (reg *Registry) Readable(id string) (Readable, error) {
	e, ok := reg.entries[id]
	if !ok {
		return nil, fmt.Errorf("param: unknown identifier %q", id)
	}
	if e.r == nil {
		return nil, fmt.Errorf("param: %q is not readable", id)
	}
	return e.r, nil
}

// Writable resolves id to its write capability
func (reg *Registry) Writable(id string) (Writable, error) {
	e, ok := reg.entries[id]
	if !ok {
		return nil, fmt.Errorf("param: unknown identifier %q", id)
	}
	if e.w == nil {
		return nil, fmt.Errorf("param: %q is not writable", id)
	}
	return e.w, nil
}

// Settable resolves id to a combined read/write capability.  If the
// registered value is itself Settable it is returned unwrapped, so richer
// capabilities like Ramper survive resolution.
func (reg *Registry) Settable(id string) (Settable, error) {
	r, err := reg.Readable(id)
	if err != nil {
		return nil, err
	}
	w, err := reg.Writable(id)
	if err != nil {
		return nil, err
	}
	if s, ok := reg.entries[id].v.(Settable); ok {
		return s, nil
	}
	return struct {
		Readable
		Writable
	}{r, w}, nil
}

// IDs returns all registered identifiers in sorted order
func (reg *Registry) IDs() []string {
	ids := make([]string, 0, len(reg.entries))
	for id := range reg.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CanRead reports whether id resolves to a readable parameter
func (reg *Registry) CanRead(id string) bool {
	e, ok := reg.entries[id]
	return ok && e.r != nil
}

// CanWrite reports whether id resolves to a writable parameter
func (reg *Registry) CanWrite(id string) bool {
	e, ok := reg.entries[id]
	return ok && e.w != nil
}
