// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package cluster

import "math"

// Silhouette computes the mean silhouette coefficient of a clustering
// over all points. For each point, a is the mean distance to the
// other members of its own cluster and b is the lowest mean distance
// to the members of any other cluster; the coefficient is
// (b-a)/max(a,b), so values near 1 indicate tight, well-separated
// clusters and negative values indicate misplaced points.
//
// Points in singleton clusters contribute a zero coefficient. Returns
// 0 when fewer than two clusters are populated or the inputs do not
// line up.
func Silhouette(X [][]float64, assignments []int) float64 {
	n := len(X)
	if n == 0 || len(assignments) != n {
		return 0
	}

	members := make(map[int][]int)
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}
	if len(members) < 2 {
		return 0
	}

	clusters := make([]int, 0, len(members))
	for c := range members {
		clusters = append(clusters, c)
	}

	total := 0.0
	for i := 0; i < n; i++ {
		own := assignments[i]
		if len(members[own]) <= 1 {
			continue
		}

		a := meanDistTo(X, i, members[own], true)

		b := math.MaxFloat64
		for _, c := range clusters {
			if c == own {
				continue
			}
			if d := meanDistTo(X, i, members[c], false); d < b {
				b = d
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(n)
}

// meanDistTo returns the mean euclidean distance from point i to the
// listed members, optionally skipping i itself.
func meanDistTo(X [][]float64, i int, members []int, excludeSelf bool) float64 {
	sum := 0.0
	count := 0
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		sum += math.Sqrt(sqDist(X[i], X[j]))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
