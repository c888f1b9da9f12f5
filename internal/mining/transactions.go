// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package mining

import (
	"sort"

	"github.com/tomtom215/lodestone/internal/models"
)

// LikedTransactions groups ratings into per-user transactions of the
// movies each user rated at or above threshold. Users with no liked
// movies contribute no transaction. Output order follows ascending
// user ID so runs are reproducible.
func LikedTransactions(ratings []models.Rating, threshold float64) [][]int64 {
	byUser := make(map[int64][]int64)
	for _, r := range ratings {
		if r.Rating < threshold {
			continue
		}
		byUser[r.UserID] = append(byUser[r.UserID], r.MovieID)
	}

	userIDs := make([]int64, 0, len(byUser))
	for uid := range byUser {
		userIDs = append(userIDs, uid)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	txns := make([][]int64, 0, len(userIDs))
	for _, uid := range userIDs {
		txns = append(txns, byUser[uid])
	}
	return txns
}

// GenreTransactions maps each movie's genre set to a transaction of
// dense genre IDs. The returned names slice translates a genre ID back
// to its label: names[id] is the genre for item ID id. Movies without
// genres contribute no transaction.
func GenreTransactions(movies []models.Movie) (txns [][]int64, names []string) {
	ids := make(map[string]int64)
	for _, m := range movies {
		if len(m.Genres) == 0 {
			continue
		}
		txn := make([]int64, 0, len(m.Genres))
		for _, g := range m.Genres {
			id, ok := ids[g]
			if !ok {
				id = int64(len(names))
				ids[g] = id
				names = append(names, g)
			}
			txn = append(txn, id)
		}
		txns = append(txns, txn)
	}
	return txns, names
}
