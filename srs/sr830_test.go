package srs

import "testing"

func TestSensitivityIndex(t *testing.T) {
	cases := []struct {
		volts float64
		idx   int
	}{
		{2e-9, 0},  // smallest range, exact
		{3e-9, 1},  // between entries rounds up to the covering range
		{1e-6, 8},  // exact mid-table entry
		{4e-4, 16}, // covered by 5e-4
		{1, 26},    // largest range, exact
	}
	for _, c := range cases {
		idx, err := SensitivityIndex(c.volts)
		if err != nil {
			t.Fatalf("SensitivityIndex(%v) errored: %v", c.volts, err)
		}
		if idx != c.idx {
			t.Errorf("SensitivityIndex(%v) = %d, want %d", c.volts, idx, c.idx)
		}
	}
}

func TestSensitivityIndexRejectsOutOfTable(t *testing.T) {
	if _, err := SensitivityIndex(2); err == nil {
		t.Error("expected an error for a range above 1 V")
	}
	if _, err := SensitivityIndex(0); err == nil {
		t.Error("expected an error for a non-positive range")
	}
	if _, err := SensitivityIndex(-1e-6); err == nil {
		t.Error("expected an error for a negative range")
	}
}

func TestSensitivityTableMatchesIndices(t *testing.T) {
	// the table index is the literal SENS command argument; spot check the
	// values printed on the instrument front panel
	if got := sensitivities[8]; got != 1e-6 {
		t.Errorf("sensitivity 8 = %v, want 1e-6", got)
	}
	if got := sensitivities[26]; got != 1 {
		t.Errorf("sensitivity 26 = %v, want 1", got)
	}
	if len(sensitivities) != 27 {
		t.Errorf("table has %d entries, want 27", len(sensitivities))
	}
}
