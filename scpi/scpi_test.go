package scpi_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/qtmlab/qtmtoolbox/comm"
	"github.com/qtmlab/qtmtoolbox/scpi"
)

// scriptedConn plays back canned responses and satisfies the deadline
// interface required by the timeout wrapper
type scriptedConn struct {
	rx     *bytes.Buffer
	tx     *bytes.Buffer
	closed bool
}

func newScriptedConn(response string) *scriptedConn {
	return &scriptedConn{
		rx: bytes.NewBufferString(response),
		tx: &bytes.Buffer{},
	}
}

func (c *scriptedConn) Read(b []byte) (int, error) {
	if c.rx.Len() == 0 {
		return 0, io.EOF
	}
	return c.rx.Read(b)
}

func (c *scriptedConn) Write(b []byte) (int, error) { return c.tx.Write(b) }

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

func (c *scriptedConn) SetDeadline(t time.Time) error { return nil }

func poolOf(conn *scriptedConn) *comm.Pool {
	return comm.NewPool(1, time.Minute, func() (io.ReadWriteCloser, error) {
		return conn, nil
	})
}

func TestWriteDestroysConnOnReadFailure(t *testing.T) {
	conn := newScriptedConn("") // device never answers the error query
	s := &scpi.SCPI{Pool: poolOf(conn), Handshaking: true}
	if err := s.Write(":VOLT 1"); err == nil {
		t.Fatal("expected an error when the handshake read fails")
	}
	if !conn.closed {
		t.Error("a failed read must close the connection instead of pooling it")
	}
	if s.Pool.Size() != 0 {
		t.Errorf("pool should not retain the dead connection, size %d", s.Pool.Size())
	}
}

func TestWriteShortResponseIsErrorNotPanic(t *testing.T) {
	conn := newScriptedConn("x\n")
	s := &scpi.SCPI{Pool: poolOf(conn), Handshaking: true}
	err := s.Write(":VOLT 1")
	if err == nil {
		t.Fatal("expected a truncated handshake to be an error")
	}
	if err.Error() != "x" {
		t.Errorf("expected the raw response in the error, got %q", err.Error())
	}
	// a device-level error does not mean the transport is bad
	if s.Pool.Size() != 1 {
		t.Errorf("healthy connection should return to the pool, size %d", s.Pool.Size())
	}
}

func TestWriteHandshakeOK(t *testing.T) {
	conn := newScriptedConn("+0,\"No error\"\n")
	s := &scpi.SCPI{Pool: poolOf(conn), Handshaking: true}
	if err := s.Write(":VOLT 1"); err != nil {
		t.Fatal(err)
	}
	sent := conn.tx.String()
	if !strings.Contains(sent, "*CLS;") || !strings.Contains(sent, ":SYSTem:ERRor?") {
		t.Errorf("handshaking frame missing, sent %q", sent)
	}
}

func TestWriteReadShortErrorFieldIsErrorNotPanic(t *testing.T) {
	conn := newScriptedConn("1.5;\n") // empty text after the separator
	s := &scpi.SCPI{Pool: poolOf(conn), Handshaking: true}
	if _, err := s.WriteRead(":MEAS?"); err == nil {
		t.Error("expected an empty error field to be reported as an error")
	}
}
