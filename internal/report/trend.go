package report

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("x and y lengths differ")
	ErrTooFewPoints   = errors.New("at least two points are required")
	ErrVerticalLine   = errors.New("x values are all equal")
)

// Trend is a least-squares line y = Slope*x + Intercept.
type Trend struct {
	Slope     float64
	Intercept float64
}

// At evaluates the trend line at x.
func (t Trend) At(x float64) float64 {
	return t.Slope*x + t.Intercept
}

// Line evaluates the trend at each x.
func (t Trend) Line(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = t.At(x)
	}
	return out
}

// LinearTrend fits a least-squares line through the points (xs[i], ys[i]).
func LinearTrend(xs, ys []float64) (Trend, error) {
	if len(xs) != len(ys) {
		return Trend{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return Trend{}, ErrTooFewPoints
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{}, ErrVerticalLine
	}

	slope := (n*sumXY - sumX*sumY) / denom
	return Trend{
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / n,
	}, nil
}

// YearTrend fits a trend over per-year totals such as dashboard season totals.
func YearTrend(years []int, totals []float64) (Trend, error) {
	xs := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y)
	}
	return LinearTrend(xs, totals)
}
