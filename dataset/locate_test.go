package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qtmlab/qtmtoolbox/dataset"
)

func TestNewestOrdering(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	names := []string{"one.csv", "two.csv", "three.csv"}
	for i, n := range names {
		p := writeFile(t, dir, n, "x\n")
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	got, err := dataset.Newest(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "three.csv" {
		t.Errorf("expected three.csv, got %s", got)
	}
}

func TestNewestRecursesAndFilters(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2024-01-01_SampleA")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	old := writeFile(t, dir, "old.csv", "x\n")
	mt := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, mt, mt); err != nil {
		t.Fatal(err)
	}
	want := writeFile(t, sub, "fresh.csv", "x\n")
	writeFile(t, sub, "notes.txt", "not data")

	got, err := dataset.Newest(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNewestEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt", "no data here")
	_, err := dataset.Newest(dir, ".csv")
	if !errors.Is(err, dataset.ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

func TestNewestMissingDir(t *testing.T) {
	_, err := dataset.Newest(filepath.Join(t.TempDir(), "does-not-exist"), ".csv")
	if !errors.Is(err, dataset.ErrNoFiles) {
		t.Errorf("a missing directory is none-found, got %v", err)
	}
}
