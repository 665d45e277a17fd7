/*Package oxford provides an interface to Oxford Instruments cryomagnetics
hardware.

Only the IPS120-10 superconducting magnet power supply is supported.  The
IPS speaks a terse single-letter protocol over RS232 or an ethernet bridge;
query responses echo the command letter, so 'R 7' answers 'R+5.0000'.
*/
package oxford

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qtmlab/qtmtoolbox/comm"
	"github.com/qtmlab/qtmtoolbox/param"
	"github.com/qtmlab/qtmtoolbox/util"
)

// Field sweep rate limits in tesla per minute.  The magnet quenches above
// maxRampRate; a zero or negative rate would never arrive, so it is floored
// to minRampRate instead.
const (
	maxRampRate = 0.4
	minRampRate = 0.1
)

// activity arguments for the A command
const (
	activityHold     = 0
	activitySetpoint = 1
	activityZero     = 2
)

// MagnetSupply is an IPS120-10 magnet power supply
type MagnetSupply struct {
	comm.RemoteDevice
	sync.Mutex

	// PollInterval is the delay between field readbacks while ramping
	PollInterval time.Duration
}

// NewMagnetSupply creates a new MagnetSupply and places it in remote
// unlocked mode
func NewMagnetSupply(addr string) (*MagnetSupply, error) {
	ms := &MagnetSupply{
		RemoteDevice: comm.NewRemoteDevice(addr, false),
		PollInterval: 500 * time.Millisecond,
	}
	err := ms.Open()
	if err != nil {
		return nil, err
	}
	err = ms.command("C 3")
	return ms, err
}

// command sends a message that has no interesting response, draining the echo
func (ms *MagnetSupply) command(cmd string) error {
	ms.Lock()
	defer ms.Unlock()
	_, err := ms.SendRecv([]byte(cmd))
	return err
}

// query sends a message and strips the echoed command letter from the reply
func (ms *MagnetSupply) query(cmd string) (string, error) {
	ms.Lock()
	defer ms.Unlock()
	resp, err := ms.SendRecv([]byte(cmd))
	if err != nil {
		return "", err
	}
	s := string(resp)
	if len(s) > 0 && s[0] == cmd[0] {
		s = s[1:]
	}
	if strings.HasPrefix(s, "?") {
		return "", fmt.Errorf("oxford: command %q rejected, response %q", cmd, string(resp))
	}
	return s, nil
}

func (ms *MagnetSupply) queryFloat(cmd string) (float64, error) {
	s, err := ms.query(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Field returns the output field in tesla
func (ms *MagnetSupply) Field() (float64, error) {
	return ms.queryFloat("R 7")
}

// Setpoint returns the field setpoint in tesla
func (ms *MagnetSupply) Setpoint() (float64, error) {
	return ms.queryFloat("R 8")
}

// RampRate returns the field sweep rate in tesla per minute
func (ms *MagnetSupply) RampRate() (float64, error) {
	return ms.queryFloat("R 9")
}

// SetRampRate programs the field sweep rate in tesla per minute.
// Out of range rates are clamped into [minRampRate, maxRampRate],
// not rejected.
func (ms *MagnetSupply) SetRampRate(tpm float64) error {
	if tpm > maxRampRate {
		tpm = maxRampRate
	}
	if tpm <= 0 {
		tpm = minRampRate
	}
	return ms.command(fmt.Sprintf("T %.4f", tpm))
}

// SetSetpoint programs the field setpoint in tesla
func (ms *MagnetSupply) SetSetpoint(tesla float64) error {
	return ms.command(fmt.Sprintf("J %.4f", tesla))
}

// Hold stops the sweep, holding the present field
func (ms *MagnetSupply) Hold() error {
	return ms.command(fmt.Sprintf("A %d", activityHold))
}

// GoToSetpoint sweeps the field toward the setpoint at the programmed rate
func (ms *MagnetSupply) GoToSetpoint() error {
	return ms.command(fmt.Sprintf("A %d", activitySetpoint))
}

// GoToZero sweeps the field to zero at the programmed rate
func (ms *MagnetSupply) GoToZero() error {
	return ms.command(fmt.Sprintf("A %d", activityZero))
}

// Status returns the raw X status string
func (ms *MagnetSupply) Status() (string, error) {
	return ms.query("X")
}

// Write programs the setpoint and starts sweeping toward it at the
// programmed rate.  It returns as soon as the sweep begins.
func (ms *MagnetSupply) Write(tesla float64) error {
	err := ms.SetSetpoint(tesla)
	if err != nil {
		return err
	}
	return ms.GoToSetpoint()
}

// Read returns the output field in tesla, satisfying param.Readable
func (ms *MagnetSupply) Read() (float64, error) {
	return ms.Field()
}

// RampTo programs the sweep rate (tesla per second, converted to the
// supply's native tesla per minute) and the setpoint and starts the sweep.
// It returns when the sweep is commanded; callers poll Field for arrival.
func (ms *MagnetSupply) RampTo(setpoint, rate float64) error {
	err := ms.SetRampRate(rate * 60)
	if err != nil {
		return err
	}
	return ms.Write(setpoint)
}

// WaitAtField blocks until the field readback reaches tesla, then holds.
// The supply only resolves a few decimal places, so readbacks are compared
// at 0.01 T.
func (ms *MagnetSupply) WaitAtField(tesla float64) error {
	want := util.Round(tesla, 0.01)
	for {
		time.Sleep(ms.PollInterval)
		b, err := ms.Field()
		if err != nil {
			return err
		}
		if util.Round(b, 0.01) == want {
			return ms.Hold()
		}
	}
}

// Register adds this device's parameters to reg under name, e.g. name
// "magnet" yields magnet.b and magnet.rate
func (ms *MagnetSupply) Register(reg *param.Registry, name string) error {
	err := reg.Register(name+".b", ms)
	if err != nil {
		return err
	}
	return reg.Register(name+".rate", settable{
		param.ReadFunc(ms.RampRate),
		param.WriteFunc(ms.SetRampRate),
	})
}

type settable struct {
	param.Readable
	param.Writable
}
