// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"sort"

	"github.com/tomtom215/lodestone/internal/models"
)

// GenreMatrix is a binary genre feature matrix over a movie catalog,
// used as classifier and clustering input. Columns are the sorted set
// of genres observed in the catalog; each row is one movie's indicator
// vector.
type GenreMatrix struct {
	Genres   []string
	MovieIDs []int64
	Rows     [][]float64

	index map[int64]int
}

// BuildGenreMatrix derives the binary feature matrix from a catalog.
// Movies without genres get an all-zero row.
func BuildGenreMatrix(movies []models.Movie) *GenreMatrix {
	genreSet := make(map[string]struct{})
	for _, m := range movies {
		for _, g := range m.Genres {
			genreSet[g] = struct{}{}
		}
	}

	genres := make([]string, 0, len(genreSet))
	for g := range genreSet {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	genreCol := make(map[string]int, len(genres))
	for i, g := range genres {
		genreCol[g] = i
	}

	gm := &GenreMatrix{
		Genres:   genres,
		MovieIDs: make([]int64, len(movies)),
		Rows:     make([][]float64, len(movies)),
		index:    make(map[int64]int, len(movies)),
	}

	for i, m := range movies {
		row := make([]float64, len(genres))
		for _, g := range m.Genres {
			row[genreCol[g]] = 1
		}
		gm.MovieIDs[i] = m.MovieID
		gm.Rows[i] = row
		gm.index[m.MovieID] = i
	}

	return gm
}

// Row returns the feature vector for a movie ID.
func (g *GenreMatrix) Row(movieID int64) ([]float64, bool) {
	idx, ok := g.index[movieID]
	if !ok {
		return nil, false
	}
	return g.Rows[idx], true
}

// Len returns the number of movies in the matrix.
func (g *GenreMatrix) Len() int {
	return len(g.MovieIDs)
}
