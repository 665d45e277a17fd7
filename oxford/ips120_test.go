package oxford

import (
	"bytes"
	"io"
	"testing"

	"github.com/qtmlab/qtmtoolbox/comm"
)

// replyConn hands out one queued response per Read call and records
// everything written
type replyConn struct {
	replies []string
	tx      bytes.Buffer
}

func (c *replyConn) Read(b []byte) (int, error) {
	if len(c.replies) == 0 {
		return 0, io.EOF
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return copy(b, r), nil
}

func (c *replyConn) Write(b []byte) (int, error) { return c.tx.Write(b) }

func (c *replyConn) Close() error { return nil }

func testSupply(replies ...string) (*MagnetSupply, *replyConn) {
	conn := &replyConn{replies: replies}
	ms := &MagnetSupply{RemoteDevice: comm.NewRemoteDevice("fake", false)}
	ms.Conn = conn
	return ms, conn
}

func TestSetRampRateClampsIntoLimits(t *testing.T) {
	cases := []struct {
		tpm  float64
		want string
	}{
		{0, "T 0.1000\r"},    // a zero rate would never arrive
		{-0.2, "T 0.1000\r"},
		{1.0, "T 0.4000\r"},  // quench limit
		{0.25, "T 0.2500\r"},
	}
	for _, tc := range cases {
		ms, conn := testSupply("T\r")
		if err := ms.SetRampRate(tc.tpm); err != nil {
			t.Fatalf("rate %v: %v", tc.tpm, err)
		}
		if got := conn.tx.String(); got != tc.want {
			t.Errorf("rate %v: sent %q, want %q", tc.tpm, got, tc.want)
		}
	}
}

func TestFieldParsesEchoedReply(t *testing.T) {
	ms, conn := testSupply("R+0.5000\r")
	b, err := ms.Field()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0.5 {
		t.Errorf("expected 0.5 T, got %v", b)
	}
	if got := conn.tx.String(); got != "R 7\r" {
		t.Errorf("sent %q, want field readback query", got)
	}
}

func TestQueryRejection(t *testing.T) {
	ms, _ := testSupply("?T\r")
	if _, err := ms.query("T 0.1"); err == nil {
		t.Error("a ? prefixed response must surface as an error")
	}
}
