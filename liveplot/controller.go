/*Package liveplot drives a live view of the most recent sweep file.

The controller owns all plot state: which file is loaded and which variables
are selected for each axis.  Axis state changes only through SelectFile,
Refresh and SetAxis; the distinction between a full rebuild (new file, new
variable set) and a cheap data-only refresh (same file, possibly more rows)
is the whole point of the type, so nothing else is allowed to touch it.

Rendering is delegated to a Renderer; the controller never draws anything
itself.
*/
package liveplot

import (
	"sync"

	"github.com/qtmlab/qtmtoolbox/dataset"
	"github.com/qtmlab/qtmtoolbox/sweepgrid"
)

// Renderer is the drawing surface the controller talks to.  Implementations
// display the data however they like (a web page, a PNG writer, a test
// recorder); none of the calls may fail, a renderer that cannot draw shows
// nothing.
type Renderer interface {
	// SetLine replaces the primary trace data
	SetLine(x, y []float64)

	// SetLine2 replaces the secondary trace data; nil slices clear it
	SetLine2(x, y []float64)

	// SetImage replaces the 2D image and its extents
	SetImage(g *sweepgrid.Grid)

	// SetLabels sets the axis labels
	SetLabels(x, y string)

	// SetColorScale sets the color legend bounds
	SetColorScale(min, max float64)

	// Autorange fits the view to the current data
	Autorange()

	// Clear empties the plot, leaving an empty coordinate frame
	Clear()
}

// Axis identifies one of the controller's selectors
type Axis int

// The selectable axes.  AxisY2 is the optional second trace; AxisZ is the
// value axis of the image view.
const (
	AxisX Axis = iota
	AxisY
	AxisY2
	AxisZ
)

// Controller decides how each refresh is rendered.  Create one with New.
//
// The value-axis selector has one position past the real variable list,
// the "<none>" sentinel; while it is selected the controller renders a line
// and never attempts an image reshape.
type Controller struct {
	mu sync.Mutex
	r  Renderer

	file *dataset.File

	// selector indices into file.Series; y2 < 0 means no second trace,
	// z == len(file.Series) is the "<none>" sentinel
	x, y, y2, z int

	swapped bool
}

// New returns an idle Controller rendering to r
func New(r Renderer) *Controller {
	return &Controller{r: r, y2: -1}
}

// CurrentPath returns the path of the loaded file, or "" when idle
func (c *Controller) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return ""
	}
	return c.file.Path
}

// Variables returns the loaded variable names in header order, or nil when
// idle.  The value-axis selector additionally offers "<none>" one past the
// end of this list.
func (c *Controller) Variables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	return c.file.Names()
}

// Selection returns the current axis indices
func (c *Controller) Selection() (x, y, y2, z int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y, c.y2, c.z
}

// SelectFile parses the file at path and rebuilds the plot around it: the
// variable list is replaced, previously chosen indices are clamped into the
// new range (or set to defaults on the first load), and a full redraw
// including axis labels is performed.
//
// This is the expensive path; callers should invoke it only on an actual
// file-identity change and use Refresh otherwise.
func (c *Controller) SelectFile(path string) error {
	f, err := dataset.Parse(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild(f)
	return nil
}

// rebuild replaces the loaded file, reclamps every selector into the new
// variable range and performs a full redraw.  Callers hold c.mu.
func (c *Controller) rebuild(f *dataset.File) {
	first := c.file == nil
	wasSentinel := !first && c.z == len(c.file.Series)
	c.file = f
	n := len(f.Series)
	if first {
		c.x = 0
		c.y = clampIndex(1, n)
		c.y2 = -1
		c.z = n // sentinel: start in line mode
	} else {
		c.x = clampIndex(c.x, n)
		c.y = clampIndex(c.y, n)
		if c.y2 >= 0 {
			c.y2 = clampIndex(c.y2, n)
		}
		if wasSentinel {
			// the sentinel position moves with the variable list
			c.z = n
		} else {
			c.z = clampIndex(c.z, n)
		}
	}
	c.redraw(true)
}

// Refresh re-parses the currently loaded file, whose content may have grown,
// and pushes only the data arrays to the renderer.  Axis selections are
// untouched unless the file was rewritten with a different variable set, in
// which case the selectors are reclamped and the plot rebuilt as if the file
// had just been selected.  It is a no-op when idle.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	f, err := dataset.Parse(c.file.Path)
	if err != nil {
		return err
	}
	if !sameVariables(c.file, f) {
		c.rebuild(f)
		return nil
	}
	c.file = f
	c.redraw(false)
	return nil
}

// sameVariables reports whether two parses of a file expose the same
// variable set, by count and by name.  A mismatch means the file was
// rewritten rather than appended to, so stale selector indices may point
// past the new columns.
func sameVariables(a, b *dataset.File) bool {
	if len(a.Series) != len(b.Series) {
		return false
	}
	for i := range a.Series {
		if a.Series[i].Name != b.Series[i].Name {
			return false
		}
	}
	return true
}

// SetAxis changes one selector index and redraws without a rebuild.  The
// value axis accepts len(Variables()) as the "<none>" sentinel.  Out of
// range indices are clamped.  It is a no-op when idle.
func (c *Controller) SetAxis(which Axis, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return
	}
	n := len(c.file.Series)
	switch which {
	case AxisX:
		c.x = clampIndex(index, n)
	case AxisY:
		c.y = clampIndex(index, n)
	case AxisY2:
		if index < 0 {
			c.y2 = -1
			c.r.SetLine2(nil, nil)
		} else {
			c.y2 = clampIndex(index, n)
		}
	case AxisZ:
		c.z = clampIndex(index, n+1)
	}
	c.redraw(false)
}

// SwapOrientation toggles which coordinate is treated as the fast axis in
// the image view and redraws
func (c *Controller) SwapOrientation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	swapped := !c.swapped
	c.swapped = swapped
	if c.file != nil {
		c.redraw(false)
	}
}

// redraw pushes the current state to the renderer.  full additionally
// refreshes the axis labels.  Callers hold c.mu.
func (c *Controller) redraw(full bool) {
	f := c.file
	n := len(f.Series)
	if full {
		xl, yl := "", ""
		if c.x >= 0 && c.x < n {
			xl = f.Series[c.x].Name
		}
		if c.y >= 0 && c.y < n {
			yl = f.Series[c.y].Name
		}
		c.r.SetLabels(xl, yl)
	}
	if n == 0 {
		c.r.Clear()
		return
	}
	xs := f.Series[c.x].Data
	if len(xs) == 0 {
		// no data yet; empty frame, not an error
		c.r.Clear()
		return
	}
	if c.z >= n {
		c.drawLine(f, xs)
		return
	}
	c.drawImage(f, xs)
}

func (c *Controller) drawLine(f *dataset.File, xs []float64) {
	c.r.SetLine(xs, f.Series[c.y].Data)
	if c.y2 >= 0 {
		c.r.SetLine2(xs, f.Series[c.y2].Data)
	} else {
		c.r.SetLine2(nil, nil)
	}
	c.r.Autorange()
}

func (c *Controller) drawImage(f *dataset.File, xs []float64) {
	ys := f.Series[c.y].Data
	vals := f.Series[c.z].Data
	// the period is inferred from whichever selected coordinate steps
	// once per inner pass; the orientation toggle picks which
	outer, inner := xs, ys
	if c.swapped {
		outer, inner = ys, xs
	}
	period := sweepgrid.Period(outer)
	g, err := sweepgrid.Reshape(vals, outer, inner, period, c.swapped)
	if err != nil {
		// not enough samples to shape yet; show the line view instead
		c.drawLine(f, xs)
		return
	}
	min, max := g.Bounds()
	c.r.SetImage(g)
	c.r.SetColorScale(min, max)
	c.r.Autorange()
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
