// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package recommend implements a hybrid recommendation engine over
// movie ratings.
//
// # Architecture
//
// The engine combines multiple algorithm families to produce
// personalized movie recommendations:
//
//   - Implicit-feedback ALS: matrix factorization over confidence-weighted ratings
//   - Neighborhood models: item-based and user-based collaborative filtering
//   - Popularity: confidence-weighted baseline with recency decay
//   - Diversity Reranking: MMR (Maximal Marginal Relevance) over genres
//
// # Design Principles
//
// The engine is designed with the following production-grade requirements:
//
//   - Deterministic: Same inputs produce identical outputs (seeded RNG)
//   - Reproducible: Results are consistent across runs
//   - Auditable: All operations are logged with structured fields
//   - Observable: Metrics exposed for monitoring
//   - Durable: Model state persisted to disk between restarts
//   - Traceable: Request IDs propagated through context
//
// # Cold Start
//
// Users with no rating history cannot be scored by the personalized
// algorithms. When the blended score set comes back empty the engine
// falls back to the popularity baseline and marks the response
// metadata accordingly.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, logger)
//
//	// Register algorithms
//	engine.RegisterAlgorithm(algorithms.NewALS(cfg.ALS, cfg.Seed))
//	engine.RegisterAlgorithm(algorithms.NewPopularity(cfg.Popularity))
//
//	// Get recommendations
//	recs, err := engine.Recommend(ctx, recommend.Request{
//	    UserID: userID,
//	    K:      20,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Training operations acquire an
// exclusive lock, while prediction operations use a shared lock. This
// allows concurrent reads during normal operation while ensuring
// consistency during model updates.
//
// This package has no dependencies on other internal packages; the
// database layer plugs in through the DataProvider interface.
package recommend
