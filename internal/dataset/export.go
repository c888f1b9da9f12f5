// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
)

// WriteRatingsCSV writes ratings in the MovieLens wire format
// (userId,movieId,rating,timestamp) to the given path, creating parent
// directories as needed.
func WriteRatingsCSV(path string, ratings []models.Rating) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"userId", "movieId", "rating", "timestamp"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ratings {
		record := []string{
			strconv.FormatInt(r.UserID, 10),
			strconv.FormatInt(r.MovieID, 10),
			strconv.FormatFloat(r.Rating, 'f', -1, 64),
			strconv.FormatInt(r.Timestamp.Unix(), 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	logging.Info().Str("path", path).Int("rows", len(ratings)).Msg("Wrote ratings CSV")
	return nil
}

// WriteCleanReportCSV writes the drop accounting as a two-column CSV
// for toolchains that cannot read workbooks.
func WriteCleanReportCSV(path string, report models.CleanReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"metric", "value"},
		{"source", report.Source},
		{"rows_read", strconv.Itoa(report.RowsRead)},
		{"rows_kept", strconv.Itoa(report.RowsKept)},
		{"rows_dropped", strconv.Itoa(report.Dropped())},
		{"missing_fields", strconv.Itoa(report.MissingFields)},
		{"out_of_range", strconv.Itoa(report.OutOfRange)},
		{"duplicates", strconv.Itoa(report.Duplicates)},
		{"unknown_movie_refs", strconv.Itoa(report.UnknownMovieRef)},
		{"unpopular_items", strconv.Itoa(report.UnpopularItems)},
		{"started_at", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"duration_seconds", strconv.FormatFloat(report.Duration, 'f', -1, 64)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("Wrote cleaning report CSV")
	return nil
}

// WriteCleanReportXLSX writes a cleaning report workbook with two
// sheets: the drop accounting and the dataset statistics summary.
func WriteCleanReportXLSX(path string, report models.CleanReport, stats models.DatasetStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const cleanSheet = "Cleaning"
	// The default sheet is renamed rather than adding and deleting.
	if err := f.SetSheetName("Sheet1", cleanSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cleanRows := [][]interface{}{
		{"Metric", "Value"},
		{"Source", report.Source},
		{"Rows read", report.RowsRead},
		{"Rows kept", report.RowsKept},
		{"Rows dropped", report.Dropped()},
		{"Missing fields", report.MissingFields},
		{"Out of range", report.OutOfRange},
		{"Duplicates", report.Duplicates},
		{"Unknown movie refs", report.UnknownMovieRef},
		{"Unpopular items", report.UnpopularItems},
		{"Started at", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Duration (s)", report.Duration},
	}
	if err := writeRows(f, cleanSheet, cleanRows); err != nil {
		return err
	}

	const statsSheet = "Statistics"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	statsRows := [][]interface{}{
		{"Metric", "Value"},
		{"Ratings", stats.NumRatings},
		{"Users", stats.NumUsers},
		{"Movies", stats.NumMovies},
		{"Sparsity", stats.Sparsity},
		{"Rating mean", stats.Ratings.Mean},
		{"Rating std", stats.Ratings.StdDev},
		{"Rating min", stats.Ratings.Min},
		{"Rating median", stats.Ratings.Median},
		{"Rating max", stats.Ratings.Max},
		{"Ratings/user mean", stats.RatingsPerUser.Mean},
		{"Ratings/user median", stats.RatingsPerUser.Median},
		{"Ratings/item mean", stats.RatingsPerItem.Mean},
		{"Ratings/item median", stats.RatingsPerItem.Median},
	}

	// Genre counts sorted by frequency, appended below the summary.
	if len(stats.GenreCounts) > 0 {
		type genreCount struct {
			genre string
			count int
		}
		genres := make([]genreCount, 0, len(stats.GenreCounts))
		for g, c := range stats.GenreCounts {
			genres = append(genres, genreCount{g, c})
		}
		sort.Slice(genres, func(i, j int) bool {
			if genres[i].count != genres[j].count {
				return genres[i].count > genres[j].count
			}
			return genres[i].genre < genres[j].genre
		})
		statsRows = append(statsRows, []interface{}{"", ""})
		statsRows = append(statsRows, []interface{}{"Genre", "Movies"})
		for _, gc := range genres {
			statsRows = append(statsRows, []interface{}{gc.genre, gc.count})
		}
	}
	if err := writeRows(f, statsSheet, statsRows); err != nil {
		return err
	}

	if err := f.SetColWidth(cleanSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(statsSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("Wrote cleaning report workbook")
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
