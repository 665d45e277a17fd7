package lab_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/qtmlab/qtmtoolbox/dataset"
	"github.com/qtmlab/qtmtoolbox/lab"
	"github.com/qtmlab/qtmtoolbox/param"
)

// fakeParam acts like an instrument whose readback always equals the last
// written setpoint
type fakeParam struct {
	mu     sync.Mutex
	val    float64
	writes int
}

func (f *fakeParam) Read() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, nil
}

func (f *fakeParam) Write(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.val = v
	f.writes++
	return nil
}

// fakeRamper tracks the last ramp command
type fakeRamper struct {
	fakeParam
	rampedTo, rampRate float64
}

func (f *fakeRamper) RampTo(setpoint, rate float64) error {
	f.rampedTo, f.rampRate = setpoint, rate
	f.Write(setpoint)
	return nil
}

func TestMoveSteps(t *testing.T) {
	fp := &fakeParam{}
	// 1 unit at 5 units/s with 20 ms pacing is ~10 steps
	err := lab.Move(context.Background(), fp, 1.0, 5.0)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := fp.Read()
	if v != 1.0 {
		t.Errorf("expected to land on 1.0, got %v", v)
	}
	if fp.writes < 2 {
		t.Errorf("expected a stepped move, got %d writes", fp.writes)
	}
}

func TestMoveNoopAtSetpoint(t *testing.T) {
	fp := &fakeParam{val: 2.5}
	if err := lab.Move(context.Background(), fp, 2.5, 1.0); err != nil {
		t.Fatal(err)
	}
	if fp.writes != 0 {
		t.Errorf("moving to the current value should not write, got %d writes", fp.writes)
	}
}

func TestMoveDelegatesToRamper(t *testing.T) {
	fr := &fakeRamper{}
	if err := lab.Move(context.Background(), fr, 3.0, 0.5); err != nil {
		t.Fatal(err)
	}
	if fr.rampedTo != 3.0 || fr.rampRate != 0.5 {
		t.Errorf("expected RampTo(3.0, 0.5), got RampTo(%v, %v)", fr.rampedTo, fr.rampRate)
	}
	if fr.writes != 1 {
		t.Errorf("a ramping device must not be stepped, got %d writes", fr.writes)
	}
}

func TestMeasureOrder(t *testing.T) {
	reg := param.NewRegistry()
	a := &fakeParam{val: 1}
	b := &fakeParam{val: 2}
	if err := reg.Register("dev.a", a); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("dev.b", b); err != nil {
		t.Fatal(err)
	}
	list, err := lab.NewList(reg, "dev.b", "dev.a")
	if err != nil {
		t.Fatal(err)
	}
	vals, err := list.Measure()
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != 2 || vals[1] != 1 {
		t.Errorf("measurement order must follow the list, got %v", vals)
	}
	h := list.Header()
	if h[0] != "dev.b" || h[1] != "dev.a" {
		t.Errorf("header order must follow the list, got %v", h)
	}
}

func TestSweepWritesParsableFile(t *testing.T) {
	dir := t.TempDir()
	target := &fakeParam{}
	meas := &fakeParam{val: 42}
	reg := param.NewRegistry()
	reg.Register("m.v", meas)
	list, err := lab.NewList(reg, "m.v")
	if err != nil {
		t.Fatal(err)
	}

	path, err := lab.Sweep(context.Background(), lab.SweepConfig{
		Target:   target,
		TargetID: "gate.dcv",
		Start:    0,
		Stop:     0.2,
		Rate:     100, // fast enough that the move is a single step
		Points:   3,
		Filename: filepath.Join(dir, "run.csv"),
		List:     list,
		Settle:   time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	f, err := dataset.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	names := f.Names()
	if names[0] != "gate.dcv" || names[1] != "m.v" {
		t.Fatalf("unexpected header %v", names)
	}
	if f.Samples() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Samples())
	}
	sweep := f.Series[0].Data
	if sweep[0] != 0 || sweep[1] != 0.1 || sweep[2] != 0.2 {
		t.Errorf("unexpected setpoint column %v", sweep)
	}
	for _, v := range f.Series[1].Data {
		if v != 42 {
			t.Errorf("unexpected measurement %v", v)
		}
	}
}

func TestSweepAvoidsOverwrite(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "run.csv")
	if err := os.WriteFile(orig, []byte("precious\n"), 0644); err != nil {
		t.Fatal(err)
	}
	target := &fakeParam{}
	path, err := lab.Sweep(context.Background(), lab.SweepConfig{
		Target:   target,
		Start:    0,
		Stop:     1,
		Rate:     1000,
		Points:   1,
		Filename: orig,
		Settle:   time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if path == orig {
		t.Fatalf("sweep overwrote an existing file")
	}
	if filepath.Base(path) != "run_1.csv" {
		t.Errorf("expected run_1.csv, got %s", filepath.Base(path))
	}
	content, _ := os.ReadFile(orig)
	if string(content) != "precious\n" {
		t.Errorf("existing file was modified")
	}
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	meas := &fakeParam{val: 7}
	reg := param.NewRegistry()
	reg.Register("m.v", meas)
	list, err := lab.NewList(reg, "m.v")
	if err != nil {
		t.Fatal(err)
	}
	path, err := lab.Record(context.Background(), time.Millisecond, 3, filepath.Join(dir, "rec.csv"), list)
	if err != nil {
		t.Fatal(err)
	}
	f, err := dataset.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Names()[0] != "time" {
		t.Errorf("first column should be time, got %v", f.Names())
	}
	if f.Samples() != 3 {
		t.Errorf("expected 3 rows, got %d", f.Samples())
	}
	if f.Series[0].Data[0] != 0 {
		t.Errorf("time should start at zero, got %v", f.Series[0].Data[0])
	}
}

func TestWaitFor(t *testing.T) {
	fp := &fakeParam{val: 1.0}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := lab.WaitFor(ctx, fp, 1.0, 0.05, 10*time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("expected stability to be reached, got %v", err)
	}

	// a parameter stuck away from the setpoint should time out via ctx
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	err = lab.WaitFor(ctx2, fp, 5.0, 0.05, time.Hour, time.Millisecond)
	if err == nil {
		t.Fatal("expected a context timeout")
	}
}
