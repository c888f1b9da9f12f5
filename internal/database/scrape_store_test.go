// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/lodestone/internal/models"
)

func TestSaveScrapedMovies(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	const runID = "run-1"
	const sourceURL = "https://example.com/top"

	page1 := []models.ScrapedMovie{
		{Title: "The Shawshank Redemption", Year: 1994, Rating: 9.3, Votes: 2800000, URL: "https://example.com/t/1"},
		{Title: "The Godfather", Year: 1972, Rating: 9.2, Votes: 1900000},
	}
	page2 := []models.ScrapedMovie{
		{Title: "12 Angry Men"},
	}

	checkNoError(t, db.SaveScrapedMovies(ctx, runID, sourceURL, 1, page1))
	checkNoError(t, db.SaveScrapedMovies(ctx, runID, sourceURL, 2, page2))

	movies, err := db.ListScrapedMovies(ctx, runID, 0)
	checkNoError(t, err)
	checkSliceLen(t, "movies", len(movies), 3)

	// Listing order is preserved across pages.
	checkStringEqual(t, "movies[0].Title", movies[0].Title, "The Shawshank Redemption")
	checkStringEqual(t, "movies[1].Title", movies[1].Title, "The Godfather")
	checkStringEqual(t, "movies[2].Title", movies[2].Title, "12 Angry Men")

	checkIntEqual(t, "movies[0].Year", movies[0].Year, 1994)
	checkFloatClose(t, "movies[0].Rating", movies[0].Rating, 9.3)
	checkInt64Equal(t, "movies[0].Votes", movies[0].Votes, 2800000)
	checkStringEqual(t, "movies[0].URL", movies[0].URL, "https://example.com/t/1")

	// Absent fields come back as zero values.
	checkIntEqual(t, "movies[2].Year", movies[2].Year, 0)
	checkFloatClose(t, "movies[2].Rating", movies[2].Rating, 0)
	checkStringEqual(t, "movies[2].URL", movies[2].URL, "")
}

func TestSaveScrapedMovies_SkipsUntitledRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	rows := []models.ScrapedMovie{
		{Title: "Casablanca", Year: 1942},
		{Title: ""},
		{Title: "Rear Window", Year: 1954},
	}

	checkNoError(t, db.SaveScrapedMovies(ctx, "run-2", "https://example.com", 1, rows))

	movies, err := db.ListScrapedMovies(ctx, "run-2", 0)
	checkNoError(t, err)
	checkSliceLen(t, "movies", len(movies), 2)
}

func TestSaveScrapedMovies_Validation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	checkError(t, db.SaveScrapedMovies(ctx, "", "https://example.com", 1,
		[]models.ScrapedMovie{{Title: "X"}}))

	// An empty page is a no-op, not an error.
	checkNoError(t, db.SaveScrapedMovies(ctx, "run-3", "https://example.com", 1, nil))
}

func TestRecordScrapeRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	run := &models.ScrapeRun{
		ID:        "run-a",
		SourceURL: "https://example.com/top",
		StartedAt: seedBase,
	}
	checkNoError(t, db.RecordScrapeRun(ctx, run))

	// The final write replaces the initial record with the summary.
	run.PagesFetched = 3
	run.RowsFound = 75
	run.FromCache = 1
	run.Failures = 0
	run.Duration = 12.5
	checkNoError(t, db.RecordScrapeRun(ctx, run))

	runs, err := db.ListScrapeRuns(ctx, 0)
	checkNoError(t, err)
	checkSliceLen(t, "runs", len(runs), 1)
	checkStringEqual(t, "runs[0].ID", runs[0].ID, "run-a")
	checkIntEqual(t, "runs[0].PagesFetched", runs[0].PagesFetched, 3)
	checkIntEqual(t, "runs[0].RowsFound", runs[0].RowsFound, 75)
	checkIntEqual(t, "runs[0].FromCache", runs[0].FromCache, 1)
	checkFloatClose(t, "runs[0].Duration", runs[0].Duration, 12.5)
	checkInt64Equal(t, "runs[0].StartedAt", runs[0].StartedAt.Unix(), seedBase.Unix())
}

func TestListScrapeRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	older := &models.ScrapeRun{ID: "run-old", SourceURL: "https://example.com", StartedAt: seedBase}
	newer := &models.ScrapeRun{ID: "run-new", SourceURL: "https://example.com", StartedAt: seedBase.Add(time.Hour)}
	checkNoError(t, db.RecordScrapeRun(ctx, older))
	checkNoError(t, db.RecordScrapeRun(ctx, newer))

	runs, err := db.ListScrapeRuns(ctx, 0)
	checkNoError(t, err)
	checkSliceLen(t, "runs", len(runs), 2)
	checkStringEqual(t, "runs[0].ID", runs[0].ID, "run-new")
	checkStringEqual(t, "runs[1].ID", runs[1].ID, "run-old")
}

func TestRecordScrapeRun_Validation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	checkError(t, db.RecordScrapeRun(ctx, nil))
	checkError(t, db.RecordScrapeRun(ctx, &models.ScrapeRun{SourceURL: "https://example.com"}))

	_, err := db.ListScrapedMovies(ctx, "", 0)
	checkError(t, err)
}
