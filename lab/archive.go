package lab

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// sample identifiers look like 2024-03-01_HallBarA
const sampleDateLayout = "2006-01-02"

// ArchiveScript copies the measurement script at scriptPath into
// Data/<sample>/Scripts under dataDir, prefixing the copy with a timestamp
// so successive runs of the same script are all retained.  It returns the
// path of the copy.
//
// The sample identifier must be of the form YYYY-MM-DD_<name>; scripts that
// already carry a leading date keep it and only gain a time suffix.
func ArchiveScript(dataDir, scriptPath, sample string) (string, error) {
	if err := checkSample(sample); err != nil {
		return "", err
	}
	dir := filepath.Join(dataDir, sample, "Scripts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	base := filepath.Base(scriptPath)
	now := time.Now()
	var name string
	if len(base) >= 10 {
		if _, err := time.Parse(sampleDateLayout, base[:10]); err == nil {
			// the filename already starts with a date; keep it and
			// insert the current time after it
			name = base[:10] + "-" + now.Format("150405") + base[10:]
		}
	}
	if name == "" {
		name = now.Format("2006-01-02-150405") + "_" + base
	}

	dst := filepath.Join(dir, name)
	if err := copyFile(scriptPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func checkSample(sample string) error {
	if len(sample) < 12 || sample[10] != '_' {
		return fmt.Errorf("lab: sample identifier %q must have the form YYYY-MM-DD_<name>", sample)
	}
	if _, err := time.Parse(sampleDateLayout, sample[:10]); err != nil {
		return fmt.Errorf("lab: sample identifier %q must have the form YYYY-MM-DD_<name>", sample)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
