package comm

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// Terminator wraps a ReadWriter, appending the Tx terminator to every write
// and consuming through the Rx terminator on every read.  The terminators
// are stripped from what the consumer sees.
type Terminator struct {
	rw     io.ReadWriter
	rdr    *bufio.Reader
	tx, rx byte
}

// NewTerminator returns a Terminator with the given tx and rx framing bytes
func NewTerminator(rw io.ReadWriter, tx, rx byte) *Terminator {
	return &Terminator{rw: rw, rdr: bufio.NewReader(rw), tx: tx, rx: rx}
}

func (t *Terminator) Write(b []byte) (int, error) {
	n, err := t.rw.Write(append(b, t.tx))
	if n > 0 {
		n-- // do not count the terminator against the caller's buffer
	}
	return n, err
}

func (t *Terminator) Read(b []byte) (int, error) {
	buf, err := t.rdr.ReadBytes(t.rx)
	if err != nil {
		return 0, err
	}
	if len(buf) > 0 && buf[len(buf)-1] == t.rx {
		buf = buf[:len(buf)-1]
	}
	n := copy(b, buf)
	return n, nil
}

// Timeout wraps a ReadWriter, refreshing the deadline before each read and
// write.  The underlying value must support deadlines (net.Conn does).
type Timeout struct {
	rw io.ReadWriter
	d  time.Duration
}

type deadliner interface {
	SetDeadline(time.Time) error
}

// NewTimeout returns a Timeout wrapper, or an error if rw cannot carry
// deadlines and is not another comm wrapper
func NewTimeout(rw io.ReadWriter, d time.Duration) (*Timeout, error) {
	if _, ok := underlying(rw).(deadliner); !ok {
		return nil, errors.New("comm: value does not support deadlines")
	}
	return &Timeout{rw: rw, d: d}, nil
}

func underlying(rw io.ReadWriter) io.ReadWriter {
	for {
		t, ok := rw.(*Terminator)
		if !ok {
			return rw
		}
		rw = t.rw
	}
}

func (t *Timeout) refresh() {
	if d, ok := underlying(t.rw).(deadliner); ok {
		d.SetDeadline(time.Now().Add(t.d))
	}
}

func (t *Timeout) Write(b []byte) (int, error) {
	t.refresh()
	return t.rw.Write(b)
}

func (t *Timeout) Read(b []byte) (int, error) {
	t.refresh()
	return t.rw.Read(b)
}

// BackingOffTCPConnMaker returns a CreationFunc which dials addr over TCP
// with an exponential backoff, suitable for passing to NewPool
func BackingOffTCPConnMaker(addr string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		var conn net.Conn
		op := func() error {
			var err error
			conn, err = net.DialTimeout("tcp", addr, timeout)
			return err
		}
		err := backoffRetry(op)
		return conn, err
	}
}

func backoffRetry(op func() error) error {
	return backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
}

// SerialConnMaker returns a CreationFunc which opens the serial port
// described by conf, suitable for passing to NewPool
func SerialConnMaker(conf *serial.Config) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(conf)
	}
}
