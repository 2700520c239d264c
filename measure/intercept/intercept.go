// Package intercept fits swept (input level, product power) pairs to a line
// and solves for the level at which the fitted line crosses zero power, the
// extrapolated intercept point of the device under test.
package intercept

import (
	"errors"
	"math"
)

// Errors returned by intercept estimation.
var (
	ErrInsufficientData = errors.New("intercept: need at least two points")
	ErrLengthMismatch   = errors.New("intercept: levels and powers differ in length")
	ErrNonFiniteData    = errors.New("intercept: inputs must be finite")
	ErrDegenerateFit    = errors.New("intercept: fitted slope is zero")
)

// DefaultSlopeTol is the absolute slope magnitude below which a fit is
// considered degenerate. A zero slope means the product power does not
// respond to the input level, so no intercept exists.
const DefaultSlopeTol = 1e-12

// Line is a first-order model power = Slope*level + Offset.
type Line struct {
	Slope  float64
	Offset float64
}

// FitLine fits powers ≈ Slope*levels + Offset by ordinary least squares.
//
// Both slices must be finite, equal in length and hold at least two points.
// A level sequence with no spread cannot be fitted and reports
// ErrDegenerateFit.
func FitLine(levels, powers []float64) (Line, error) {
	if len(levels) != len(powers) {
		return Line{}, ErrLengthMismatch
	}

	if len(levels) < 2 {
		return Line{}, ErrInsufficientData
	}

	for i := range levels {
		if !isFinite(levels[i]) || !isFinite(powers[i]) {
			return Line{}, ErrNonFiniteData
		}
	}

	n := float64(len(levels))

	var sumX, sumY float64
	for i := range levels {
		sumX += levels[i]
		sumY += powers[i]
	}

	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy float64
	for i := range levels {
		dx := levels[i] - meanX
		sxx += dx * dx
		sxy += dx * (powers[i] - meanY)
	}

	if sxx == 0 {
		return Line{}, ErrDegenerateFit
	}

	slope := sxy / sxx

	return Line{
		Slope:  slope,
		Offset: meanY - slope*meanX,
	}, nil
}

// XIntercept solves Slope*x + Offset = 0 for x.
//
// Slopes within slopeTol of zero signal a degenerate fit and are reported as
// ErrDegenerateFit rather than dividing through to an infinite level.
func (l Line) XIntercept(slopeTol float64) (float64, error) {
	if math.Abs(l.Slope) <= slopeTol {
		return 0, ErrDegenerateFit
	}

	return -l.Offset / l.Slope, nil
}

// Estimate fits the pairs and returns the x-axis intercept level using
// DefaultSlopeTol for degenerate-slope detection.
func Estimate(levels, powers []float64) (float64, error) {
	return EstimateTol(levels, powers, DefaultSlopeTol)
}

// EstimateTol is Estimate with an explicit slope tolerance.
func EstimateTol(levels, powers []float64, slopeTol float64) (float64, error) {
	line, err := FitLine(levels, powers)
	if err != nil {
		return 0, err
	}

	return line.XIntercept(slopeTol)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
