/*
Package spglm implements the exponential family distributions, link functions,
and variance functions that define a generalized linear model (GLM).

A Family combines one Link and one Variance function, and provides the
deviance, log-likelihood, and residual calculations needed by an iteratively
reweighted least squares (IRLS) fitting algorithm.  The fitting algorithm
itself is not part of this package; it consumes the Weights, Fitted, Predict,
Deviance, and LogLike operations defined here.

All numeric kernels operate on whole float64 slices at a time, writing
results into a caller-supplied destination slice.
*/
package spglm
