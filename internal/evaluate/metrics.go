// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package evaluate

import "math"

// PrecisionAtK returns the fraction of the top-k slots filled with
// relevant items. The denominator is k even when fewer than k items
// were recommended, so a model that cannot fill the list is penalized.
func PrecisionAtK(recommended []int64, relevant map[int64]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	return float64(hitsAtK(recommended, relevant, k)) / float64(k)
}

// RecallAtK returns the fraction of relevant items found in the top k.
func RecallAtK(recommended []int64, relevant map[int64]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	return float64(hitsAtK(recommended, relevant, k)) / float64(len(relevant))
}

// NDCGAtK returns the normalized discounted cumulative gain at k with
// binary relevance. A hit at rank i (zero-based) contributes
// 1/log2(i+2), and the ideal ordering places all relevant items first.
func NDCGAtK(recommended []int64, relevant map[int64]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}

	limit := k
	if limit > len(recommended) {
		limit = len(recommended)
	}
	dcg := 0.0
	for i := 0; i < limit; i++ {
		if _, ok := relevant[recommended[i]]; ok {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}
	if dcg == 0 {
		return 0
	}

	ideal := len(relevant)
	if ideal > k {
		ideal = k
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}

	return dcg / idcg
}

// HitRateAtK returns 1 if any relevant item appears in the top k.
func HitRateAtK(recommended []int64, relevant map[int64]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	if hitsAtK(recommended, relevant, k) > 0 {
		return 1
	}
	return 0
}

func hitsAtK(recommended []int64, relevant map[int64]struct{}, k int) int {
	limit := k
	if limit > len(recommended) {
		limit = len(recommended)
	}
	hits := 0
	for i := 0; i < limit; i++ {
		if _, ok := relevant[recommended[i]]; ok {
			hits++
		}
	}
	return hits
}
