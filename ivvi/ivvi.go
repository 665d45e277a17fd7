/*Package ivvi provides an interface to the Delft IVVI-rack DAC module.

The rack speaks a fixed-length binary protocol over RS232 at 115200 baud
with odd parity.  There is no command terminator; message lengths are
carried in the first byte of each frame.
*/
package ivvi

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/qtmlab/qtmtoolbox/param"
)

const (
	// NumDACs is the channel count of one DAC module
	NumDACs = 16

	// the DACs span -2 V to +2 V over the full 16-bit code range
	spanVolts = 4.0
	minVolts  = -2.0
)

func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        115200,
		Parity:      serial.ParityOdd,
		StopBits:    serial.Stop1,
		ReadTimeout: 1 * time.Second}
}

// DACRack is an IVVI-rack DAC module
type DACRack struct {
	sync.Mutex
	conn io.ReadWriteCloser
}

// NewDACRack opens the serial port at addr and returns a DACRack
func NewDACRack(addr string) (*DACRack, error) {
	conn, err := serial.OpenPort(makeSerConf(addr))
	if err != nil {
		return nil, err
	}
	return &DACRack{conn: conn}, nil
}

// Close closes the serial port
func (dr *DACRack) Close() error {
	return dr.conn.Close()
}

// readAll fetches the raw 16-bit codes of every channel
func (dr *DACRack) readAll() ([]uint16, error) {
	dr.Lock()
	defer dr.Unlock()
	_, err := dr.conn.Write([]byte{4, 0, 2 + 2*NumDACs, 2})
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 2+2*NumDACs)
	_, err = io.ReadFull(dr.conn, buf)
	if err != nil {
		return nil, err
	}
	codes := make([]uint16, NumDACs)
	for i := range codes {
		codes[i] = binary.BigEndian.Uint16(buf[2+2*i:])
	}
	return codes, nil
}

// Voltages returns the output voltage of all 16 channels
func (dr *DACRack) Voltages() ([]float64, error) {
	codes, err := dr.readAll()
	if err != nil {
		return nil, err
	}
	volts := make([]float64, len(codes))
	for i, c := range codes {
		volts[i] = codeToVolts(c)
	}
	return volts, nil
}

// Voltage returns the output voltage of channel ch (1-16)
func (dr *DACRack) Voltage(ch int) (float64, error) {
	if err := checkChannel(ch); err != nil {
		return 0, err
	}
	volts, err := dr.Voltages()
	if err != nil {
		return 0, err
	}
	return volts[ch-1], nil
}

// SetVoltage programs channel ch (1-16) to volts
func (dr *DACRack) SetVoltage(ch int, volts float64) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	code, err := voltsToCode(volts)
	if err != nil {
		return err
	}
	dr.Lock()
	defer dr.Unlock()
	msg := []byte{7, 0, 2, 1, byte(ch), 0, 0}
	binary.BigEndian.PutUint16(msg[5:], code)
	_, err = dr.conn.Write(msg)
	if err != nil {
		return err
	}
	// the rack acknowledges every set with a 2 byte status frame
	ack := make([]byte, 2)
	_, err = io.ReadFull(dr.conn, ack)
	if err != nil {
		return err
	}
	if ack[1] != 0 {
		return fmt.Errorf("ivvi: dac %d set rejected, status %d", ch, ack[1])
	}
	return nil
}

func checkChannel(ch int) error {
	if ch < 1 || ch > NumDACs {
		return fmt.Errorf("ivvi: dac channel %d out of range [1, %d]", ch, NumDACs)
	}
	return nil
}

func codeToVolts(code uint16) float64 {
	return float64(code)/65535*spanVolts + minVolts
}

func voltsToCode(volts float64) (uint16, error) {
	if volts < minVolts || volts > minVolts+spanVolts {
		return 0, fmt.Errorf("ivvi: voltage %v out of range [%v, %v]", volts, minVolts, minVolts+spanVolts)
	}
	return uint16((volts - minVolts) / spanVolts * 65535), nil
}

// Register adds this device's parameters to reg under name, e.g. name
// "ivvi" yields ivvi.dac1 through ivvi.dac16
func (dr *DACRack) Register(reg *param.Registry, name string) error {
	for ch := 1; ch <= NumDACs; ch++ {
		ch := ch
		err := reg.Register(fmt.Sprintf("%s.dac%d", name, ch), settable{
			param.ReadFunc(func() (float64, error) { return dr.Voltage(ch) }),
			param.WriteFunc(func(v float64) error { return dr.SetVoltage(ch, v) }),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type settable struct {
	param.Readable
	param.Writable
}
