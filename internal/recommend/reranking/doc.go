// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package reranking implements post-processing algorithms for recommendation diversity.
//
// Rerankers operate on already-scored recommendations and reorder them
// to balance relevance against secondary objectives such as diversity
// and calibration:
//
//	Algorithms -> Initial Ranking -> Rerankers -> Final Ranking
//	(relevance)                      (diversity, calibration)
//
// # Available Rerankers
//
// Maximal Marginal Relevance (MMR):
//   - Penalizes items similar to already-selected items
//   - Genre-based Jaccard similarity drives the penalty
//   - Lambda parameter controls the relevance/diversity tradeoff
//
// Calibration:
//   - Matches the genre and era distribution of recommendations to the
//     distribution observed in rating history
//   - Prevents over-representation of majority genres
//
// # MMR Algorithm
//
// MMR iteratively selects the item maximizing
//
//	lambda * score(i) - (1-lambda) * max(sim(i, s) for s in selected)
//
// Lambda guidelines:
//   - 0.9-1.0: mostly relevance, minimal diversity
//   - 0.7-0.9: balanced (recommended)
//   - below 0.5: diversity-focused, may sacrifice relevance
//
// Reference: Carbonell & Goldstein (1998), "The Use of MMR,
// Diversity-Based Reranking for Reordering Documents and Producing
// Summaries." SIGIR 1998.
//
// # Calibration Algorithm
//
// Calibration scores candidate lists by how closely their attribute
// distribution matches a learned target distribution, using KL
// divergence as the distance. A user base that rates 30% comedy should
// not receive recommendation lists that are 80% action.
//
// Reference: Steck (2018), "Calibrated Recommendations." RecSys 2018.
//
// # Thread Safety
//
// All rerankers are safe for concurrent use. Calibration guards its
// learned target distribution with a mutex so it can be retrained
// while serving requests.
package reranking
