/*Package sweepgrid reshapes flat 2D-sweep data into images.

A 2D sweep records its points as a flat list: the fast axis steps every
sample and the slow axis steps once per full fast-axis pass.  The period of
the fast axis is not stored anywhere; it is inferred from the samples
themselves, and the flat value column is folded into an (outer count x
period) grid for display as an image.
*/
package sweepgrid

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientData is returned when a reshape cannot be performed; the
// caller should fall back to a line view and try again when more samples
// have been written.
var ErrInsufficientData = errors.New("sweepgrid: insufficient data to infer geometry")

// Period returns the number of consecutive samples in one inner-loop pass,
// inferred from the coordinate that steps once per pass: the first index
// whose value differs from the first sample.
//
// A degenerate axis that never changes value has no measurable period and
// clamps to 1 so a reshape never divides by zero.  An empty axis returns 0;
// Reshape rejects that as insufficient data.
func Period(coord []float64) int {
	if len(coord) == 0 {
		return 0
	}
	for i, v := range coord {
		if v != coord[0] {
			return i
		}
	}
	return 1
}

// Grid is a reshaped 2D sweep: the data matrix plus the axis extents needed
// to position it.  Rows of Data lie along the display x axis and columns
// along the display y axis.  Extents are offset by half a cell so grid cells
// are centered on their coordinate samples rather than corner-aligned.
type Grid struct {
	Data *mat.Dense

	// axis extents of the image rectangle
	X0, X1, Y0, Y1 float64
}

// Rows returns the number of rows (display x axis steps)
func (g *Grid) Rows() int {
	r, _ := g.Data.Dims()
	return r
}

// Cols returns the number of columns (display y axis steps)
func (g *Grid) Cols() int {
	_, c := g.Data.Dims()
	return c
}

// Bounds returns the observed minimum and maximum of the grid values, used
// to synchronize a color-scale legend with the data on every redraw
func (g *Grid) Bounds() (min, max float64) {
	return mat.Min(g.Data), mat.Max(g.Data)
}

// Reshape folds values into a Grid using the inferred period.
//
// outer is the coordinate series the period was inferred from; it holds one
// value per period and steps between them.  inner is the coordinate that
// changes every sample.  Each grid row is one period of inner samples at a
// fixed outer value, so rows follow outer and columns follow inner.
//
// values is truncated to the largest multiple of period not exceeding its
// length; a trailing partial row is dropped, not padded.  Per-cell spacing
// comes from the first and period-th outer samples and the first and second
// inner samples.  When transpose is true the grid is transposed and the
// extents swapped, for the orientation where the selectors designate the
// axes the other way around.
//
// If any series is empty, or period exceeds the number of values, the data
// cannot be shaped yet and ErrInsufficientData is returned.
func Reshape(values, outer, inner []float64, period int, transpose bool) (*Grid, error) {
	if len(values) == 0 || len(outer) == 0 || len(inner) == 0 {
		return nil, ErrInsufficientData
	}
	if period < 1 || period > len(values) {
		return nil, ErrInsufficientData
	}
	rows := len(values) / period

	data := mat.NewDense(rows, period, nil)
	for r := 0; r < rows; r++ {
		data.SetRow(r, values[r*period:(r+1)*period])
	}

	dOuter := 1.0
	if rows > 1 && len(outer) > period {
		dOuter = outer[period] - outer[0]
	}
	dInner := 1.0
	if period > 1 && len(inner) > 1 {
		dInner = inner[1] - inner[0]
	}

	g := &Grid{
		Data: data,
		X0:   outer[0] - dOuter/2,
		X1:   outer[0] + (float64(rows)-0.5)*dOuter,
		Y0:   inner[0] - dInner/2,
		Y1:   inner[0] + (float64(period)-0.5)*dInner,
	}
	if transpose {
		g = &Grid{
			Data: mat.DenseCopyOf(g.Data.T()),
			X0:   g.Y0, X1: g.Y1,
			Y0: g.X0, Y1: g.X1,
		}
	}
	return g, nil
}
