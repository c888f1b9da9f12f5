// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// GaussianNB is a Gaussian naive Bayes classifier: per-class feature
// means and variances with a variance smoothing floor, scored in log
// space. Safe for concurrent prediction after Fit.
type GaussianNB struct {
	// VarSmoothing is the fraction of the largest feature variance
	// added to every variance for numeric stability. Defaults to 1e-9.
	VarSmoothing float64

	classes   []string
	priors    map[string]float64
	means     map[string][]float64
	variances map[string][]float64
	dims      int
}

// NewGaussianNB returns an unfitted classifier with default smoothing.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{VarSmoothing: 1e-9}
}

// Fit estimates per-class priors, means and variances.
func (g *GaussianNB) Fit(features [][]float64, labels []string) error {
	if len(features) == 0 {
		return fmt.Errorf("training set is empty")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", len(features), len(labels))
	}
	dims := len(features[0])
	for i, row := range features {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), dims)
		}
	}

	byClass := make(map[string][][]float64)
	for i, row := range features {
		byClass[labels[i]] = append(byClass[labels[i]], row)
	}

	g.dims = dims
	g.classes = make([]string, 0, len(byClass))
	g.priors = make(map[string]float64, len(byClass))
	g.means = make(map[string][]float64, len(byClass))
	g.variances = make(map[string][]float64, len(byClass))

	total := float64(len(features))
	maxVar := 0.0

	for class, rows := range byClass {
		g.classes = append(g.classes, class)
		g.priors[class] = float64(len(rows)) / total

		mean := make([]float64, dims)
		for _, row := range rows {
			for j, v := range row {
				mean[j] += v
			}
		}
		for j := range mean {
			mean[j] /= float64(len(rows))
		}

		variance := make([]float64, dims)
		for _, row := range rows {
			for j, v := range row {
				d := v - mean[j]
				variance[j] += d * d
			}
		}
		for j := range variance {
			variance[j] /= float64(len(rows))
			if variance[j] > maxVar {
				maxVar = variance[j]
			}
		}

		g.means[class] = mean
		g.variances[class] = variance
	}
	sort.Strings(g.classes)

	// Smoothing floor keeps zero-variance features from collapsing the
	// log density to -Inf.
	smoothing := g.VarSmoothing
	if smoothing <= 0 {
		smoothing = 1e-9
	}
	eps := smoothing * maxVar
	if eps == 0 {
		eps = smoothing
	}
	for _, variance := range g.variances {
		for j := range variance {
			variance[j] += eps
		}
	}

	return nil
}

// Predict classifies each query row by the highest posterior
// log-likelihood. Class ties break lexicographically.
func (g *GaussianNB) Predict(ctx context.Context, queries [][]float64) ([]string, error) {
	if g.classes == nil {
		return nil, fmt.Errorf("classifier is not fitted")
	}

	out := make([]string, len(queries))
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(q) != g.dims {
			return nil, fmt.Errorf("query row %d has %d features, want %d", i, len(q), g.dims)
		}
		out[i] = g.predictOne(q)
	}
	return out, nil
}

// PredictOne classifies a single feature vector.
func (g *GaussianNB) PredictOne(x []float64) (string, error) {
	if g.classes == nil {
		return "", fmt.Errorf("classifier is not fitted")
	}
	if len(x) != g.dims {
		return "", fmt.Errorf("query has %d features, want %d", len(x), g.dims)
	}
	return g.predictOne(x), nil
}

// Classes returns the fitted class labels in sorted order.
func (g *GaussianNB) Classes() []string {
	out := make([]string, len(g.classes))
	copy(out, g.classes)
	return out
}

func (g *GaussianNB) predictOne(x []float64) string {
	best := ""
	bestScore := math.Inf(-1)

	for _, class := range g.classes {
		score := math.Log(g.priors[class])
		mean := g.means[class]
		variance := g.variances[class]
		for j, v := range x {
			d := v - mean[j]
			score += -0.5*math.Log(2*math.Pi*variance[j]) - d*d/(2*variance[j])
		}
		if score > bestScore {
			bestScore = score
			best = class
		}
	}
	return best
}
