// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/tomtom215/lodestone/internal/models"
)

// SplitResult holds a train/test partition of a rating set.
type SplitResult struct {
	Train []models.Rating
	Test  []models.Rating
}

// Split partitions ratings into train and test sets with a seeded
// shuffle, stratified by user: each user contributes a testFraction
// share of their own ratings and always keeps at least one rating in
// the training set. testFraction must be in (0, 1). The same seed
// always produces the same partition.
func Split(ratings []models.Rating, testFraction float64, seed int64) (SplitResult, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return SplitResult{}, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	byUser := make(map[int64][]int)
	for i, r := range ratings {
		byUser[r.UserID] = append(byUser[r.UserID], i)
	}

	// Deterministic user order independent of map iteration.
	userIDs := make([]int64, 0, len(byUser))
	for uid := range byUser {
		userIDs = append(userIDs, uid)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	rng := rand.New(rand.NewSource(seed))
	inTest := make([]bool, len(ratings))
	testSize := 0
	for _, uid := range userIDs {
		idxs := byUser[uid]
		held := int(float64(len(idxs)) * testFraction)
		// A user never loses every rating to the test side.
		if held >= len(idxs) {
			held = len(idxs) - 1
		}
		if held == 0 {
			continue
		}
		perm := rng.Perm(len(idxs))
		for _, p := range perm[:held] {
			inTest[idxs[p]] = true
		}
		testSize += held
	}

	result := SplitResult{
		Train: make([]models.Rating, 0, len(ratings)-testSize),
		Test:  make([]models.Rating, 0, testSize),
	}
	for i, r := range ratings {
		if inTest[i] {
			result.Test = append(result.Test, r)
		} else {
			result.Train = append(result.Train, r)
		}
	}
	return result, nil
}

// SplitByUser holds out the leaveOut most recent ratings of each user
// for testing. Users with fewer than leaveOut+1 ratings stay entirely
// in the training set so every test user has training history.
func SplitByUser(ratings []models.Rating, leaveOut int, seed int64) (SplitResult, error) {
	if leaveOut < 1 {
		return SplitResult{}, fmt.Errorf("leave-out count must be at least 1, got %d", leaveOut)
	}

	byUser := make(map[int64][]models.Rating)
	for _, r := range ratings {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	// Deterministic user order independent of map iteration.
	userIDs := make([]int64, 0, len(byUser))
	for uid := range byUser {
		userIDs = append(userIDs, uid)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	rng := rand.New(rand.NewSource(seed))
	result := SplitResult{
		Train: make([]models.Rating, 0, len(ratings)),
		Test:  make([]models.Rating, 0, len(byUser)*leaveOut),
	}

	for _, uid := range userIDs {
		userRatings := byUser[uid]
		if len(userRatings) <= leaveOut {
			result.Train = append(result.Train, userRatings...)
			continue
		}

		// Most recent ratings go to test. When timestamps are absent
		// (all zero) fall back to a random holdout for the user.
		if hasTimestamps(userRatings) {
			sort.SliceStable(userRatings, func(i, j int) bool {
				return userRatings[i].Timestamp.Before(userRatings[j].Timestamp)
			})
			cut := len(userRatings) - leaveOut
			result.Train = append(result.Train, userRatings[:cut]...)
			result.Test = append(result.Test, userRatings[cut:]...)
			continue
		}

		perm := rng.Perm(len(userRatings))
		held := make(map[int]bool, leaveOut)
		for _, idx := range perm[:leaveOut] {
			held[idx] = true
		}
		for i, r := range userRatings {
			if held[i] {
				result.Test = append(result.Test, r)
			} else {
				result.Train = append(result.Train, r)
			}
		}
	}

	return result, nil
}

func hasTimestamps(ratings []models.Rating) bool {
	for _, r := range ratings {
		if !r.Timestamp.IsZero() {
			return true
		}
	}
	return false
}
