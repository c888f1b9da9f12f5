// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package regress

import (
	"fmt"
	"math"
)

// OLS is an ordinary least squares linear regression model.
type OLS struct {
	// FitIntercept adds a constant column so the model learns a bias
	// term alongside the feature coefficients.
	FitIntercept bool

	coeffs    []float64
	intercept float64
	dims      int
	fitted    bool
}

// NewOLS creates a linear regression model that fits an intercept.
func NewOLS() *OLS {
	return &OLS{FitIntercept: true}
}

// Fit estimates the coefficients from the feature matrix X and the
// target vector y by solving the normal equations X'X theta = X'y.
func (o *OLS) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 {
		return fmt.Errorf("ols: no samples to fit")
	}
	if len(y) != n {
		return fmt.Errorf("ols: %d samples but %d targets", n, len(y))
	}

	p := len(X[0])
	if p == 0 {
		return fmt.Errorf("ols: samples have no features")
	}
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("ols: sample %d has %d features, want %d", i, len(row), p)
		}
	}

	cols := p
	if o.FitIntercept {
		cols++
	}
	if cols > n {
		return fmt.Errorf("ols: %d samples cannot determine %d coefficients", n, cols)
	}

	// Accumulate the Gram matrix X'X and the moment vector X'y in one
	// pass, building only the lower triangle.
	A := make([][]float64, cols)
	for i := range A {
		A[i] = make([]float64, cols)
	}
	b := make([]float64, cols)

	row := make([]float64, cols)
	for s := 0; s < n; s++ {
		if o.FitIntercept {
			row[0] = 1
			copy(row[1:], X[s])
		} else {
			copy(row, X[s])
		}
		for i := 0; i < cols; i++ {
			b[i] += row[i] * y[s]
			for j := 0; j <= i; j++ {
				A[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < cols; i++ {
		for j := i + 1; j < cols; j++ {
			A[i][j] = A[j][i]
		}
	}

	theta, ok := choleskySolve(A, b)
	if !ok {
		// Collinear columns leave the Gram matrix only semi-definite.
		// A ridge scaled to the diagonal restores definiteness while
		// leaving the predictions essentially unchanged.
		ridge := 1e-8 * meanDiagonal(A)
		if ridge < 1e-8 {
			ridge = 1e-8
		}
		for i := range A {
			A[i][i] += ridge
		}
		theta, _ = choleskySolve(A, b)
	}

	if o.FitIntercept {
		o.intercept = theta[0]
		o.coeffs = theta[1:]
	} else {
		o.intercept = 0
		o.coeffs = theta
	}
	o.dims = p
	o.fitted = true
	return nil
}

// Predict returns the fitted value for each row of X.
func (o *OLS) Predict(X [][]float64) ([]float64, error) {
	if !o.fitted {
		return nil, fmt.Errorf("ols: model not fitted")
	}

	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != o.dims {
			return nil, fmt.Errorf("ols: sample %d has %d features, want %d", i, len(row), o.dims)
		}
		out[i] = o.predictRow(row)
	}
	return out, nil
}

// PredictOne returns the fitted value for a single sample.
func (o *OLS) PredictOne(x []float64) (float64, error) {
	if !o.fitted {
		return 0, fmt.Errorf("ols: model not fitted")
	}
	if len(x) != o.dims {
		return 0, fmt.Errorf("ols: sample has %d features, want %d", len(x), o.dims)
	}
	return o.predictRow(x), nil
}

func (o *OLS) predictRow(x []float64) float64 {
	sum := o.intercept
	for j, v := range x {
		sum += o.coeffs[j] * v
	}
	return sum
}

// Coefficients returns a copy of the fitted feature coefficients.
func (o *OLS) Coefficients() []float64 {
	out := make([]float64, len(o.coeffs))
	copy(out, o.coeffs)
	return out
}

// Intercept returns the fitted bias term, zero when the model was fit
// without one.
func (o *OLS) Intercept() float64 {
	return o.intercept
}

// choleskySolve solves A*x = b using Cholesky decomposition. ok is
// false when the matrix was not positive definite and a pivot had to
// be floored, in which case the caller should regularize and retry.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func choleskySolve(A [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	ok := true

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// Floor the pivot so the substitutions stay finite.
					sum = 1e-10
					ok = false
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				if L[j][j] != 0 {
					L[i][j] = sum / L[j][j]
				}
			}
		}
	}

	// Solve L * z = b (forward substitution)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Solve L' * x = z (back substitution)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x, ok
}

func meanDiagonal(A [][]float64) float64 {
	if len(A) == 0 {
		return 0
	}
	sum := 0.0
	for i := range A {
		sum += A[i][i]
	}
	return sum / float64(len(A))
}
