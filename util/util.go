// Package util contains small numeric helpers shared by the measurement layer
package util

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Round rounds x to the nearest multiple of unit, e.g. Round(1.2345, 0.001)
// == 1.234 or Round(7.3, 0.5) == 7.5
func Round(x, unit float64) float64 {
	return math.Round(x/unit) * unit
}

// Linspace returns n evenly spaced values from start to stop inclusive,
// rounded to the nearest unit.  Setpoint lists are rounded so that readback
// comparisons against instrument responses are stable.
func Linspace(start, stop float64, n int, unit float64) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{Round(start, unit)}
	}
	out := make([]float64, n)
	floats.Span(out, start, stop)
	for i := range out {
		out[i] = Round(out[i], unit)
	}
	return out
}
