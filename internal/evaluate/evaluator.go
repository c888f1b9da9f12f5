// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package evaluate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/tomtom215/lodestone/internal/recommend"
)

const defaultCutoff = 10

// EvaluatorConfig controls how an evaluation run is executed.
type EvaluatorConfig struct {
	// K is the ranking cutoff. Defaults to 10.
	K int

	// Workers is the number of goroutines scoring users in parallel.
	// Defaults to the number of CPUs.
	Workers int
}

// Result holds ranking metrics averaged over all test users.
type Result struct {
	K         int     `json:"k"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	NDCG      float64 `json:"ndcg"`
	HitRate   float64 `json:"hit_rate"`

	// Users is the number of test users the averages cover,
	// including cold users.
	Users int `json:"users"`

	// ColdUsers counts test users the model returned nothing for.
	// They score zero on every metric.
	ColdUsers int `json:"cold_users"`
}

// Evaluator scores trained algorithms against withheld interactions.
type Evaluator struct {
	k       int
	workers int
}

// NewEvaluator builds an evaluator, applying defaults for
// out-of-range config values.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	if cfg.K <= 0 {
		cfg.K = defaultCutoff
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Evaluator{k: cfg.K, workers: cfg.Workers}
}

// Evaluate scores a trained algorithm against the test set. The train
// set is used only to build per-user exclusion sets, so already-seen
// items never count for or against the model. Users are scored in
// parallel and each user's test interactions form their relevant set.
func (e *Evaluator) Evaluate(ctx context.Context, alg recommend.Algorithm, train, test []recommend.Interaction) (*Result, error) {
	if alg == nil {
		return nil, fmt.Errorf("algorithm is nil")
	}
	if !alg.IsTrained() {
		return nil, fmt.Errorf("algorithm %s is not trained", alg.Name())
	}
	if len(test) == 0 {
		return nil, fmt.Errorf("test set is empty")
	}

	relevant := relevantByUser(test)
	exclude := excludeByUser(train)
	userIDs := make([]int64, 0, len(relevant))
	for id := range relevant {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	workers := e.workers
	if workers > len(userIDs) {
		workers = len(userIDs)
	}
	chunkSize := (len(userIDs) + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sums     Result
		firstErr error
	)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(ids []int64) {
			defer wg.Done()
			for _, userID := range ids {
				select {
				case <-ctx.Done():
					return
				default:
				}

				recs, err := alg.Predict(ctx, userID, e.k, exclude[userID])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("predict for user %d: %w", userID, err)
					}
					mu.Unlock()
					return
				}

				recommended := make([]int64, len(recs))
				for i, r := range recs {
					recommended[i] = r.ItemID
				}
				rel := relevant[userID]

				mu.Lock()
				sums.Users++
				if len(recommended) == 0 {
					sums.ColdUsers++
				} else {
					sums.Precision += PrecisionAtK(recommended, rel, e.k)
					sums.Recall += RecallAtK(recommended, rel, e.k)
					sums.NDCG += NDCGAtK(recommended, rel, e.k)
					sums.HitRate += HitRateAtK(recommended, rel, e.k)
				}
				mu.Unlock()
			}
		}(userIDs[start:end])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	n := float64(sums.Users)
	return &Result{
		K:         e.k,
		Precision: sums.Precision / n,
		Recall:    sums.Recall / n,
		NDCG:      sums.NDCG / n,
		HitRate:   sums.HitRate / n,
		Users:     sums.Users,
		ColdUsers: sums.ColdUsers,
	}, nil
}

func relevantByUser(test []recommend.Interaction) map[int64]map[int64]struct{} {
	relevant := make(map[int64]map[int64]struct{})
	for _, in := range test {
		set, ok := relevant[in.UserID]
		if !ok {
			set = make(map[int64]struct{})
			relevant[in.UserID] = set
		}
		set[in.ItemID] = struct{}{}
	}
	return relevant
}

func excludeByUser(train []recommend.Interaction) map[int64]map[int64]struct{} {
	exclude := make(map[int64]map[int64]struct{})
	for _, in := range train {
		set, ok := exclude[in.UserID]
		if !ok {
			set = make(map[int64]struct{})
			exclude[in.UserID] = set
		}
		set[in.ItemID] = struct{}{}
	}
	return exclude
}
