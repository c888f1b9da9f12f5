// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package mining implements association rule mining over rating and
// catalog data with the Apriori algorithm.
//
// Transactions are item sets: the movies a user liked (rated at or
// above a threshold), or the genre sets of individual movies. The
// miner finds itemsets whose support clears a floor, level by level
// with candidate pruning, then derives rules scored by support,
// confidence and lift:
//
//	miner := mining.NewMiner(mining.Config{MinSupport: 0.05, MinConfidence: 0.3})
//	itemsets, err := miner.FrequentItemsets(ctx, txns)
//	rules, err := miner.Rules(ctx, itemsets)
//
// Support counting is parallelized across transaction chunks; each
// worker counts into a private table merged after the level completes.
package mining
