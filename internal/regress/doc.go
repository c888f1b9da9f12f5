// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package regress provides ordinary least squares regression.
//
// OLS fits via the normal equations with a Cholesky solve. When the
// Gram matrix is not positive definite (exactly collinear features)
// the fit retries with a small ridge on the diagonal, so duplicated
// columns degrade the coefficient split rather than the predictions.
// EvaluateRegression reports MSE, RMSE, MAE, and R2 for a fitted
// model against held-out targets.
package regress
