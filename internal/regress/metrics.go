// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package regress

import (
	"fmt"
	"math"
)

// RegressionReport summarizes prediction error against known targets.
type RegressionReport struct {
	// MSE is the mean squared error.
	MSE float64 `json:"mse"`

	// RMSE is the root mean squared error, in target units.
	RMSE float64 `json:"rmse"`

	// MAE is the mean absolute error.
	MAE float64 `json:"mae"`

	// R2 is the coefficient of determination. Constant targets give 0
	// rather than a division by zero.
	R2 float64 `json:"r2"`

	// N is the number of evaluated samples.
	N int `json:"n"`
}

// EvaluateRegression compares predictions against actual targets.
func EvaluateRegression(predicted, actual []float64) (*RegressionReport, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("regress: %d predictions for %d targets", len(predicted), len(actual))
	}

	report := &RegressionReport{N: len(actual)}
	if report.N == 0 {
		return report, nil
	}

	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(report.N)

	var ssRes, ssTot, absSum float64
	for i := range actual {
		err := predicted[i] - actual[i]
		ssRes += err * err
		absSum += math.Abs(err)

		dev := actual[i] - mean
		ssTot += dev * dev
	}

	report.MSE = ssRes / float64(report.N)
	report.RMSE = math.Sqrt(report.MSE)
	report.MAE = absSum / float64(report.N)
	if ssTot > 0 {
		report.R2 = 1 - ssRes/ssTot
	}

	return report, nil
}
