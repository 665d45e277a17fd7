package dataset

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoFiles is returned by Newest when nothing under the root matches
var ErrNoFiles = errors.New("dataset: no matching files")

// Newest walks the tree under root and returns the path of the most recently
// modified file whose name ends in suffix.
//
// A missing or unreadable directory yields ErrNoFiles, never a hard error;
// the data folder may not exist until the first sweep creates it.  Ties on
// modification time keep the first match in walk order (lexical), which is
// deterministic for a given filesystem state.
//
// Cost is one stat per file under root, which is fine at lab data-folder
// scale.  Callers invoke this once per poll tick.
func Newest(root, suffix string) (string, error) {
	var (
		best  string
		bestT time.Time
	)
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtree; keep walking the rest
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestT) {
			best = path
			bestT = info.ModTime()
		}
		return nil
	})
	if best == "" {
		return "", ErrNoFiles
	}
	return best, nil
}
