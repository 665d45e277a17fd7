/*Package keithley provides an interface to Keithley source meters.

Supports the model 2400 and 2401; maybe more.
*/
package keithley

import (
	"fmt"
	"strings"
	"time"

	"github.com/qtmlab/qtmtoolbox/comm"
	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/scpi"
)

// the source meter refuses setpoints beyond its compliance range
const maxSourceVoltage = 180

// SourceMeter models a Keithley 2400 SourceMeter
type SourceMeter struct {
	s scpi.SCPI
}

// New creates a new SourceMeter for the device at addr
// (host:port of its ethernet-GPIB bridge)
func New(addr string) *SourceMeter {
	maker := comm.BackingOffTCPConnMaker(addr, time.Second)
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &SourceMeter{s: scpi.SCPI{Pool: pool}}
}

// Identification returns the *IDN? response
func (sm *SourceMeter) Identification() (string, error) {
	return sm.s.ReadString("*IDN?")
}

// Verify checks that the device on the other end really is a 2400-series
// source meter.  Each lab address must host a unique device; a mismatch
// usually means a miswired bridge port.
func (sm *SourceMeter) Verify() error {
	id, err := sm.Identification()
	if err != nil {
		return err
	}
	pieces := strings.Split(id, ",")
	if len(pieces) < 2 {
		return fmt.Errorf("keithley: malformed identification %q", id)
	}
	model := strings.TrimSpace(pieces[1])
	if model != "MODEL 2400" && model != "MODEL 2401" {
		return fmt.Errorf("keithley: expected model 2400/2401, got %q", id)
	}
	return nil
}

// SourceVoltage returns the programmed source voltage level in volts
func (sm *SourceMeter) SourceVoltage() (float64, error) {
	return sm.s.ReadFloat("SOUR:VOLT:LEV:IMM:AMPL?")
}

// SetSourceVoltage programs the source voltage level in volts
func (sm *SourceMeter) SetSourceVoltage(v float64) error {
	if v > maxSourceVoltage || v < -maxSourceVoltage {
		return fmt.Errorf("keithley: setpoint %v V outside +/- %v V", v, float64(maxSourceVoltage))
	}
	return sm.s.Write(fmt.Sprintf("SOUR:VOLT:LEV %g", v))
}

// SourceCurrent returns the programmed source current level in amps
func (sm *SourceMeter) SourceCurrent() (float64, error) {
	return sm.s.ReadFloat("SOUR:CURR:LEV:IMM:AMPL?")
}

// SetSourceCurrent programs the source current level in amps
func (sm *SourceMeter) SetSourceCurrent(v float64) error {
	return sm.s.Write(fmt.Sprintf("SOUR:CURR:LEV %g", v))
}

// MeasureCurrent triggers a reading and returns the measured current in amps
func (sm *SourceMeter) MeasureCurrent() (float64, error) {
	resp, err := sm.s.ReadString("READ?")
	if err != nil {
		return 0, err
	}
	return readElement(resp, 1)
}

// MeasureVoltage triggers a reading and returns the measured voltage in volts
func (sm *SourceMeter) MeasureVoltage() (float64, error) {
	resp, err := sm.s.ReadString("READ?")
	if err != nil {
		return 0, err
	}
	return readElement(resp, 0)
}

// readElement picks one field from the comma separated READ? response
func readElement(resp string, idx int) (float64, error) {
	pieces := strings.Split(resp, ",")
	if idx >= len(pieces) {
		return 0, fmt.Errorf("keithley: response %q has no element %d", resp, idx)
	}
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(pieces[idx]), "%g", &f)
	return f, err
}

// Register adds this device's parameters to reg under name, e.g.
// name "kbg" yields kbg.dcv, kbg.dci, kbg.v, kbg.i
func (sm *SourceMeter) Register(reg *param.Registry, name string) error {
	entries := map[string]interface{}{
		"dcv": settable{param.ReadFunc(sm.SourceVoltage), param.WriteFunc(sm.SetSourceVoltage)},
		"dci": settable{param.ReadFunc(sm.SourceCurrent), param.WriteFunc(sm.SetSourceCurrent)},
		"v":   param.ReadFunc(sm.MeasureVoltage),
		"i":   param.ReadFunc(sm.MeasureCurrent),
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
