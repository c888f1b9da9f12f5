// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package cluster provides k-means clustering over dense feature
// matrices.
//
// KMeans runs Lloyd's algorithm with k-means++ seeding. The
// assignment step fans out across workers, empty clusters are
// reseeded at the point farthest from its centroid, and the run
// stops once no centroid moves further than the configured
// tolerance. Silhouette scores a finished clustering so different
// values of K can be compared.
//
// Typical usage:
//
//	km := cluster.NewKMeans(cluster.KMeansConfig{K: 5, Seed: 42})
//	result, err := km.Fit(ctx, features)
//	if err != nil {
//		return err
//	}
//	score := cluster.Silhouette(features, result.Assignments)
package cluster
