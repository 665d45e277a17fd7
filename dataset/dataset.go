/*Package dataset loads the delimited sweep files written by the measurement
layer.

A data file is a single header row of variable names followed by rows of
numeric samples, one row per measurement point.  The writer may still be
appending while we read; short or malformed trailing rows are dropped rather
than treated as errors, so a reader observing a file mid-write simply sees
slightly less data than the next read will.
*/
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Series is one named column of a data file
type Series struct {
	Name string
	Data []float64
}

// File is a parsed data file.  Series order matches the header row, which is
// stable across re-parses of the same file; consumers cache selections by
// integer index.
type File struct {
	Path    string
	ModTime time.Time
	Series  []Series
}

// Names returns the variable names in header order
func (f *File) Names() []string {
	names := make([]string, len(f.Series))
	for i, s := range f.Series {
		names[i] = s.Name
	}
	return names
}

// Samples returns the number of samples per series.  A freshly created file
// with only a header has zero samples; that is not an error.
func (f *File) Samples() int {
	if len(f.Series) == 0 {
		return 0
	}
	return len(f.Series[0].Data)
}

// Parse reads the file at path into a File.  Every series has equal length.
//
// A header with zero data rows parses successfully to zero-length series.
// Rows that fail to parse (a partially written last line, typically) end the
// data region; everything before them is kept.
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	out, err := parse(f)
	if err != nil {
		return nil, err
	}
	out.Path = path
	out.ModTime = stat.ModTime()
	return out, nil
}

func parse(r io.Reader) (*File, error) {
	rdr := csv.NewReader(r)
	rdr.TrimLeadingSpace = true
	rdr.FieldsPerRecord = -1

	header, err := rdr.Read()
	if err != nil {
		// includes io.EOF for a zero-byte file; a file with no header
		// is not parseable yet
		return nil, err
	}
	series := make([]Series, len(header))
	for i, name := range header {
		series[i] = Series{Name: strings.TrimSpace(name)}
	}

	for {
		rec, err := rdr.Read()
		if err != nil {
			// io.EOF is the normal exit; any other read error means
			// the tail of the file is not fully written yet
			break
		}
		if len(rec) != len(header) {
			break
		}
		vals := make([]float64, len(rec))
		ok := true
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			break
		}
		for i := range series {
			series[i].Data = append(series[i].Data, vals[i])
		}
	}
	return &File{Series: series}, nil
}
