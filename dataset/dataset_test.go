package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qtmlab/qtmtoolbox/dataset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sweep_001.csv", "V1, V2, V3\n0, 1, 2\n0, 3, 4\n1, 5, 6\n")
	f, err := dataset.Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	wantNames := []string{"V1", "V2", "V3"}
	for i, n := range f.Names() {
		if n != wantNames[i] {
			t.Errorf("name %d: expected %s got %s", i, wantNames[i], n)
		}
	}
	want := map[string][]float64{
		"V1": {0, 0, 1},
		"V2": {1, 3, 5},
		"V3": {2, 4, 6},
	}
	for _, s := range f.Series {
		for i, v := range s.Data {
			if v != want[s.Name][i] {
				t.Errorf("%s[%d]: expected %v got %v", s.Name, i, want[s.Name][i], v)
			}
		}
	}
	if f.Samples() != 3 {
		t.Errorf("expected 3 samples, got %d", f.Samples())
	}
}

func TestParseIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", "x, y\n1, 2\n3, 4\n")
	f1, err := dataset.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := dataset.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f1.Series) != len(f2.Series) {
		t.Fatalf("series count differs between parses: %d vs %d", len(f1.Series), len(f2.Series))
	}
	for i := range f1.Series {
		if f1.Series[i].Name != f2.Series[i].Name {
			t.Errorf("series %d: name %s vs %s", i, f1.Series[i].Name, f2.Series[i].Name)
		}
		for j := range f1.Series[i].Data {
			if f1.Series[i].Data[j] != f2.Series[i].Data[j] {
				t.Errorf("series %d sample %d differs", i, j)
			}
		}
	}
}

func TestParseHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fresh.csv", "a, b, c\n")
	f, err := dataset.Parse(path)
	if err != nil {
		t.Fatalf("a header with zero rows is not an error, got %v", err)
	}
	if len(f.Series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(f.Series))
	}
	for _, s := range f.Series {
		if len(s.Data) != 0 {
			t.Errorf("series %s: expected empty data, got %d samples", s.Name, len(s.Data))
		}
	}
}

func TestParsePartialTrailingRow(t *testing.T) {
	dir := t.TempDir()
	// the writer got through half of the third row
	path := writeFile(t, dir, "mid.csv", "x, y\n1, 2\n3, 4\n5, ")
	f, err := dataset.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Samples() != 2 {
		t.Errorf("expected the partial row to be dropped, got %d samples", f.Samples())
	}
	for _, s := range f.Series {
		if len(s.Data) != f.Samples() {
			t.Errorf("series %s length %d != %d, equal-length invariant broken", s.Name, len(s.Data), f.Samples())
		}
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := dataset.Parse(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
