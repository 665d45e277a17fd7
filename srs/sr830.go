/*Package srs provides an interface to Stanford Research Systems lock-in
amplifiers.

Only the SR830 is supported.  The sensitivity setting is an index into a
fixed table of full-scale voltage ranges; SetSensitivityVolts translates a
range in volts into the nearest index so scripts can think in volts.
*/
package srs

import (
	"fmt"
	"sort"
	"time"

	"github.com/qtmlab/qtmtoolbox/comm"
	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/scpi"
)

// sensitivities is the SR830 full-scale range table, index == SENS argument
var sensitivities = []float64{
	2e-9, 5e-9, 1e-8, 2e-8, 5e-8, 1e-7, 2e-7, 5e-7,
	1e-6, 2e-6, 5e-6, 1e-5, 2e-5, 5e-5, 1e-4, 2e-4,
	5e-4, 1e-3, 2e-3, 5e-3, 1e-2, 2e-2, 5e-2, 1e-1,
	2e-1, 5e-1, 1,
}

// LockIn models an SR830 lock-in amplifier
type LockIn struct {
	s scpi.SCPI
}

// New creates a new LockIn for the device at addr
func New(addr string) *LockIn {
	maker := comm.BackingOffTCPConnMaker(addr, time.Second)
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &LockIn{s: scpi.SCPI{Pool: pool}}
}

// Identification returns the *IDN? response
func (li *LockIn) Identification() (string, error) {
	return li.s.ReadString("*IDN?")
}

// X returns the in-phase component in volts
func (li *LockIn) X() (float64, error) { return li.s.ReadFloat("OUTP?1") }

// Y returns the quadrature component in volts
func (li *LockIn) Y() (float64, error) { return li.s.ReadFloat("OUTP?2") }

// R returns the magnitude in volts
func (li *LockIn) R() (float64, error) { return li.s.ReadFloat("OUTP?3") }

// Theta returns the phase angle in degrees
func (li *LockIn) Theta() (float64, error) { return li.s.ReadFloat("OUTP?4") }

// Frequency returns the reference frequency in Hz
func (li *LockIn) Frequency() (float64, error) { return li.s.ReadFloat("FREQ?") }

// SetFrequency programs the reference frequency in Hz
func (li *LockIn) SetFrequency(v float64) error {
	return li.s.Write(fmt.Sprintf("FREQ %g", v))
}

// Amplitude returns the sine output amplitude in volts
func (li *LockIn) Amplitude() (float64, error) { return li.s.ReadFloat("SLVL?") }

// SetAmplitude programs the sine output amplitude in volts
func (li *LockIn) SetAmplitude(v float64) error {
	return li.s.Write(fmt.Sprintf("SLVL %g", v))
}

// Phase returns the reference phase shift in degrees
func (li *LockIn) Phase() (float64, error) { return li.s.ReadFloat("PHAS?") }

// SetPhase programs the reference phase shift in degrees
func (li *LockIn) SetPhase(v float64) error {
	return li.s.Write(fmt.Sprintf("PHAS %g", v))
}

// Sensitivity returns the sensitivity index, see SensitivityVolts
func (li *LockIn) Sensitivity() (int, error) { return li.s.ReadInt("SENS?") }

// SetSensitivity programs the sensitivity index directly
func (li *LockIn) SetSensitivity(idx int) error {
	if idx < 0 || idx >= len(sensitivities) {
		return fmt.Errorf("srs: sensitivity index %d out of range [0, %d]", idx, len(sensitivities)-1)
	}
	return li.s.Write(fmt.Sprintf("SENS %d", idx))
}

// SensitivityVolts returns the current full-scale range in volts
func (li *LockIn) SensitivityVolts() (float64, error) {
	idx, err := li.Sensitivity()
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(sensitivities) {
		return 0, fmt.Errorf("srs: device reported sensitivity index %d", idx)
	}
	return sensitivities[idx], nil
}

// SetSensitivityVolts programs the smallest full-scale range that covers
// volts.  Ranges beyond the table are an error, not a clamp.
func (li *LockIn) SetSensitivityVolts(volts float64) error {
	idx, err := SensitivityIndex(volts)
	if err != nil {
		return err
	}
	return li.SetSensitivity(idx)
}

// SensitivityIndex translates a full-scale range in volts to the nearest
// covering table index
func SensitivityIndex(volts float64) (int, error) {
	if volts <= 0 {
		return 0, fmt.Errorf("srs: sensitivity range must be positive, got %v", volts)
	}
	idx := sort.SearchFloat64s(sensitivities, volts)
	if idx == len(sensitivities) {
		return 0, fmt.Errorf("srs: range %v V exceeds the largest sensitivity %v V", volts, sensitivities[len(sensitivities)-1])
	}
	return idx, nil
}

// AuxVoltage returns the voltage of aux output ch (1-4) in volts
func (li *LockIn) AuxVoltage(ch int) (float64, error) {
	if err := checkAux(ch); err != nil {
		return 0, err
	}
	return li.s.ReadFloat(fmt.Sprintf("AUXV?%d", ch))
}

// SetAuxVoltage programs aux output ch (1-4) in volts
func (li *LockIn) SetAuxVoltage(ch int, v float64) error {
	if err := checkAux(ch); err != nil {
		return err
	}
	return li.s.Write(fmt.Sprintf("AUXV%d, %g", ch, v))
}

func checkAux(ch int) error {
	if ch < 1 || ch > 4 {
		return fmt.Errorf("srs: aux channel %d out of range [1, 4]", ch)
	}
	return nil
}

// Register adds this device's parameters to reg under name, e.g. name
// "sr1" yields sr1.x, sr1.y, sr1.r, sr1.theta, sr1.freq, sr1.amp,
// sr1.phase and sr1.dac1 through sr1.dac4
func (li *LockIn) Register(reg *param.Registry, name string) error {
	entries := map[string]interface{}{
		"x":     param.ReadFunc(li.X),
		"y":     param.ReadFunc(li.Y),
		"r":     param.ReadFunc(li.R),
		"theta": param.ReadFunc(li.Theta),
		"freq":  settable{param.ReadFunc(li.Frequency), param.WriteFunc(li.SetFrequency)},
		"amp":   settable{param.ReadFunc(li.Amplitude), param.WriteFunc(li.SetAmplitude)},
		"phase": settable{param.ReadFunc(li.Phase), param.WriteFunc(li.SetPhase)},
	}
	for ch := 1; ch <= 4; ch++ {
		ch := ch
		entries[fmt.Sprintf("dac%d", ch)] = settable{
			param.ReadFunc(func() (float64, error) { return li.AuxVoltage(ch) }),
			param.WriteFunc(func(v float64) error { return li.SetAuxVoltage(ch, v) }),
		}
	}
	for k, v := range entries {
		if err := reg.Register(name+"."+k, v); err != nil {
			return err
		}
	}
	return nil
}

type settable struct {
	param.Readable
	param.Writable
}
