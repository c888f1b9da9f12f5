// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
)

// LoadStats accounts for every data row seen while parsing one CSV file.
type LoadStats struct {
	RowsRead   int // data rows seen, excluding the header
	RowsParsed int // rows successfully converted
	BadRows    int // rows with missing fields or unparseable values
}

// yearSuffix matches the trailing parenthesized year of MovieLens titles,
// e.g. "Toy Story (1995)".
var yearSuffix = regexp.MustCompile(`\((\d{4})\)\s*$`)

// noGenres is the MovieLens sentinel for movies without genre tags.
const noGenres = "(no genres listed)"

// LoadRatings reads a ratings CSV (userId,movieId,rating,timestamp).
// Rows that cannot be parsed are counted in LoadStats.BadRows and
// skipped; range validation is deferred to Clean.
func LoadRatings(path string) ([]models.Rating, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) < 3 {
		return nil, stats, fmt.Errorf("unexpected ratings header in %s: want at least userId,movieId,rating", path)
	}

	ratings := make([]models.Rating, 0, 1024)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RowsRead++
			stats.BadRows++
			continue
		}
		stats.RowsRead++

		r, ok := parseRatingRow(row)
		if !ok {
			stats.BadRows++
			continue
		}
		stats.RowsParsed++
		ratings = append(ratings, r)
	}

	logging.Debug().
		Str("path", path).
		Int("rows_read", stats.RowsRead).
		Int("rows_parsed", stats.RowsParsed).
		Int("bad_rows", stats.BadRows).
		Msg("Loaded ratings CSV")

	return ratings, stats, nil
}

// parseRatingRow converts one CSV record. The timestamp column is
// optional; when absent or unparseable the zero time is used.
func parseRatingRow(row []string) (models.Rating, bool) {
	if len(row) < 3 {
		return models.Rating{}, false
	}

	uidStr := strings.TrimSpace(row[0])
	midStr := strings.TrimSpace(row[1])
	ratingStr := strings.TrimSpace(row[2])
	if uidStr == "" || midStr == "" || ratingStr == "" {
		return models.Rating{}, false
	}

	uid, err1 := strconv.ParseInt(uidStr, 10, 64)
	mid, err2 := strconv.ParseInt(midStr, 10, 64)
	value, err3 := strconv.ParseFloat(ratingStr, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return models.Rating{}, false
	}

	var ts time.Time
	if len(row) >= 4 {
		if unix, err := strconv.ParseInt(strings.TrimSpace(row[3]), 10, 64); err == nil {
			ts = time.Unix(unix, 0).UTC()
		}
	}

	return models.Rating{UserID: uid, MovieID: mid, Rating: value, Timestamp: ts}, true
}

// LoadMovies reads a movies CSV (movieId,title,genres). The trailing
// parenthesized year is extracted from the title when present, and the
// pipe-separated genre list is split; the "(no genres listed)" sentinel
// maps to an empty slice.
func LoadMovies(path string) ([]models.Movie, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) < 2 {
		return nil, stats, fmt.Errorf("unexpected movies header in %s: want at least movieId,title", path)
	}

	movies := make([]models.Movie, 0, 1024)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RowsRead++
			stats.BadRows++
			continue
		}
		stats.RowsRead++

		m, ok := parseMovieRow(row)
		if !ok {
			stats.BadRows++
			continue
		}
		stats.RowsParsed++
		movies = append(movies, m)
	}

	logging.Debug().
		Str("path", path).
		Int("rows_read", stats.RowsRead).
		Int("rows_parsed", stats.RowsParsed).
		Int("bad_rows", stats.BadRows).
		Msg("Loaded movies CSV")

	return movies, stats, nil
}

func parseMovieRow(row []string) (models.Movie, bool) {
	if len(row) < 2 {
		return models.Movie{}, false
	}

	midStr := strings.TrimSpace(row[0])
	title := strings.TrimSpace(row[1])
	if midStr == "" || title == "" {
		return models.Movie{}, false
	}

	mid, err := strconv.ParseInt(midStr, 10, 64)
	if err != nil {
		return models.Movie{}, false
	}

	m := models.Movie{MovieID: mid, Title: title}
	if match := yearSuffix.FindStringSubmatch(title); match != nil {
		if year, err := strconv.Atoi(match[1]); err == nil {
			m.Year = year
		}
	}

	if len(row) >= 3 {
		m.Genres = SplitGenres(row[2])
	}
	return m, true
}

// SplitGenres splits a pipe-separated genre field into a slice.
// The "(no genres listed)" sentinel and empty fields yield nil.
func SplitGenres(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" || field == noGenres {
		return nil
	}
	parts := strings.Split(field, "|")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		return nil
	}
	return genres
}

// StripYear returns the title without its trailing parenthesized year,
// e.g. "Toy Story (1995)" -> "Toy Story". Used for fuzzy title matching.
func StripYear(title string) string {
	return strings.TrimSpace(yearSuffix.ReplaceAllString(title, ""))
}
