// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package evaluate

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// Split is one train/test partition of an interaction set.
type Split struct {
	Train []recommend.Interaction
	Test  []recommend.Interaction
}

// HoldoutSplit withholds roughly testFraction of each user's
// interactions for testing. The withheld count per user is
// floor(testFraction * n), so users with too few interactions to
// spare one remain entirely in the training set. At least one
// interaction per user always stays in training.
//
// The split is deterministic for a given seed.
func HoldoutSplit(interactions []recommend.Interaction, testFraction float64, seed int64) (Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	if len(interactions) == 0 {
		return Split{}, fmt.Errorf("no interactions to split")
	}

	byUser := groupByUser(interactions)
	userIDs := sortedUserIDs(byUser)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible splits, not cryptography

	split := Split{
		Train: make([]recommend.Interaction, 0, len(interactions)),
		Test:  make([]recommend.Interaction, 0, len(interactions)/4),
	}
	for _, userID := range userIDs {
		rows := byUser[userID]
		testCount := int(testFraction * float64(len(rows)))
		if testCount > len(rows)-1 {
			testCount = len(rows) - 1
		}
		if testCount < 1 {
			split.Train = append(split.Train, rows...)
			continue
		}
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
		split.Train = append(split.Train, rows[testCount:]...)
		split.Test = append(split.Test, rows[:testCount]...)
	}

	return split, nil
}

// KFoldSplit deals each user's interactions round-robin into folds
// partitions and returns one Split per partition, with that partition
// as the test set and the rest as training. Users with fewer
// interactions than folds simply appear in fewer test sets.
//
// The splits are deterministic for a given seed.
func KFoldSplit(interactions []recommend.Interaction, folds int, seed int64) ([]Split, error) {
	if folds < 2 {
		return nil, fmt.Errorf("folds must be at least 2, got %d", folds)
	}
	if len(interactions) < folds {
		return nil, fmt.Errorf("need at least %d interactions for %d folds, got %d", folds, folds, len(interactions))
	}

	byUser := groupByUser(interactions)
	userIDs := sortedUserIDs(byUser)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible splits, not cryptography

	assigned := make([][]recommend.Interaction, folds)
	for _, userID := range userIDs {
		rows := byUser[userID]
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
		for i, row := range rows {
			f := i % folds
			assigned[f] = append(assigned[f], row)
		}
	}

	splits := make([]Split, folds)
	for f := range splits {
		test := assigned[f]
		train := make([]recommend.Interaction, 0, len(interactions)-len(test))
		for other, rows := range assigned {
			if other != f {
				train = append(train, rows...)
			}
		}
		splits[f] = Split{Train: train, Test: test}
	}

	return splits, nil
}

func groupByUser(interactions []recommend.Interaction) map[int64][]recommend.Interaction {
	byUser := make(map[int64][]recommend.Interaction)
	for _, in := range interactions {
		byUser[in.UserID] = append(byUser[in.UserID], in)
	}
	return byUser
}

func sortedUserIDs(byUser map[int64][]recommend.Interaction) []int64 {
	ids := make([]int64, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
