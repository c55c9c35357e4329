package spglm

import (
	"gonum.org/v1/gonum/diff/fd"
)

// derivNumeric computes the first derivative of f at x using a centered
// finite difference.  It is the fallback for variance functions with no
// closed-form derivative.
func derivNumeric(f func(float64) float64, x float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{Formula: fd.Central})
}

// deriv2Numeric computes the second derivative of a link function at x by
// applying a centered finite difference to its analytic first derivative.
// It is the fallback for links with no closed-form second derivative.
func deriv2Numeric(deriv func(float64) float64, x float64) float64 {
	return fd.Derivative(deriv, x, &fd.Settings{Formula: fd.Central})
}
