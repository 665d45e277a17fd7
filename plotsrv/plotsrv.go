/*Package plotsrv is the web surface of the live plotter.

It implements liveplot.Renderer by keeping a snapshot of whatever the
controller last pushed and serves that snapshot as an echarts page.  The
page reloads itself on a timer; every reload re-renders from the current
snapshot, so the browser follows the sweep without any push machinery.
*/
package plotsrv

import (
	"sync"

	"github.com/qtmlab/qtmtoolbox/liveplot"
	"github.com/qtmlab/qtmtoolbox/sweepgrid"
)

// mode selects which view the page renders
type mode int

const (
	modeEmpty mode = iota
	modeLine
	modeImage
)

// state is the renderer snapshot; one value, swapped whole under the lock
type state struct {
	mode mode

	lineX, lineY   []float64
	line2X, line2Y []float64

	grid *sweepgrid.Grid

	xLabel, yLabel string
	cmin, cmax     float64
}

// Server renders controller output and serves it over HTTP.  It satisfies
// liveplot.Renderer; construct it first, then hand it to liveplot.New.
type Server struct {
	mu sync.Mutex
	st state

	// Live is the poll loop toggled by the page; optional
	Live interface {
		Start()
		Stop()
		Running() bool
	}

	// Plot is the controller driven by the page's axis selectors; set it
	// after liveplot.New so the two halves see each other
	Plot *liveplot.Controller
}

// NewServer returns a Server with an empty snapshot
func NewServer() *Server {
	return &Server{}
}

// SetLine replaces the primary trace and switches to the line view
func (s *Server) SetLine(x, y []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.mode = modeLine
	s.st.lineX, s.st.lineY = x, y
	s.st.grid = nil
}

// SetLine2 replaces the secondary trace; nil slices clear it
func (s *Server) SetLine2(x, y []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.line2X, s.st.line2Y = x, y
}

// SetImage replaces the 2D image and switches to the image view
func (s *Server) SetImage(g *sweepgrid.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.mode = modeImage
	s.st.grid = g
	s.st.lineX, s.st.lineY = nil, nil
	s.st.line2X, s.st.line2Y = nil, nil
}

// SetLabels sets the axis labels
func (s *Server) SetLabels(x, y string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.xLabel, s.st.yLabel = x, y
}

// SetColorScale sets the color legend bounds of the image view
func (s *Server) SetColorScale(min, max float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.cmin, s.st.cmax = min, max
}

// Autorange is a no-op; echarts fits the view on every render
func (s *Server) Autorange() {}

// Clear empties the plot
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = state{}
}

// snapshot returns a copy of the current state
func (s *Server) snapshot() state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}
