// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package evaluate provides offline evaluation for recommendation
// algorithms: interaction splitting, ranking metrics at a cutoff, and
// cross-validated parameter search.
//
// # Splits
//
// Splits are user-stratified so every user contributes to both sides:
//
//   - HoldoutSplit withholds a fraction of each user's interactions
//     for testing. Users with too few interactions to spare one stay
//     entirely in the training set.
//   - KFoldSplit deals each user's interactions round-robin across k
//     folds, yielding k train/test splits.
//
// Both are seeded and fully deterministic for a given seed.
//
// # Metrics
//
// All metrics are computed per user at a cutoff K and averaged:
//
//	Precision@K = |relevant in top K| / K
//	Recall@K    = |relevant in top K| / |relevant|
//	NDCG@K      = DCG@K / IDCG@K with binary relevance
//	HitRate@K   = 1 if any relevant item is in the top K
//
// Every interaction in the test set counts as relevant for its user.
// Users the trained model cannot score (cold users) contribute zero
// to every average and are reported in Result.ColdUsers, so the
// averages reflect real cold-start cost rather than hiding it.
//
// Reference: Järvelin & Kekäläinen (2002), "Cumulated gain-based
// evaluation of IR techniques." ACM TOIS.
//
// # Usage
//
// Evaluating a trained model:
//
//	split, err := evaluate.HoldoutSplit(interactions, 0.2, 42)
//	if err := als.Train(ctx, split.Train); err != nil { ... }
//
//	ev := evaluate.NewEvaluator(evaluate.EvaluatorConfig{K: 10})
//	result, err := ev.Evaluate(ctx, als, split.Train, split.Test)
//
// Cross-validated parameter search:
//
//	grid := evaluate.Grid{
//	    "factors": {32, 64},
//	    "lambda":  {0.05, 0.1},
//	}
//	search, err := ev.GridSearch(ctx,
//	    evaluate.ALSFactory(recommend.ALSParams{Iterations: 10}, 42),
//	    grid, interactions, 3, 42)
//	best := search.Best
//
// Candidates are scored by mean NDCG@K across folds.
package evaluate
