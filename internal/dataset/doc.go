// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package dataset loads, cleans, splits, and describes MovieLens-style
rating datasets.

The package handles the two CSV files of the MovieLens convention:

	ratings.csv: userId,movieId,rating,timestamp
	movies.csv:  movieId,title,genres

Loading is streaming and tolerant: structurally broken rows are counted
and skipped rather than aborting the whole file. Cleaning applies the
standard hygiene pass in order:

 1. Range and scale validation (ratings on [0.5, 5.0] half-star steps)
 2. Duplicate removal on (userId, movieId), keeping the latest rating
 3. Optional removal of ratings referencing movies absent from the catalog
 4. Popularity filter dropping items with fewer than N ratings

Every pass is accounted for in the returned CleanReport so the numbers
always reconcile: rows_read = rows_kept + sum(drop reasons).

Splitting supports a global random holdout and a per-user leave-k-out
split for recommender evaluation. Descriptive statistics (Describe)
produce the usual count/mean/percentile summary plus sparsity and
per-user/per-item activity distributions.
*/
package dataset
