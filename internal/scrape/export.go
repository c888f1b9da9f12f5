// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
)

// WriteScrapedCSV writes scraped rows to a CSV file with the header
// title,year,rating,votes,url, creating parent directories as needed.
// Zero-valued year, rating, and votes become empty fields.
func WriteScrapedCSV(path string, movies []models.ScrapedMovie) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"title", "year", "rating", "votes", "url"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range movies {
		record := []string{
			m.Title,
			emptyIfZeroInt(m.Year),
			emptyIfZeroFloat(m.Rating),
			emptyIfZeroInt64(m.Votes),
			m.URL,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	logging.Info().Str("path", path).Int("rows", len(movies)).Msg("Wrote scraped movies CSV")
	return nil
}

// WriteScrapedXLSX writes a scrape result workbook with two sheets:
// the extracted rows and the run summary.
func WriteScrapedXLSX(path string, result *Result) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const moviesSheet = "Movies"
	// The default sheet is renamed rather than adding and deleting.
	if err := f.SetSheetName("Sheet1", moviesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	movieRows := [][]interface{}{
		{"Title", "Year", "Rating", "Votes", "URL", "Page"},
	}
	for _, page := range result.Pages {
		for _, m := range page.Movies {
			movieRows = append(movieRows, []interface{}{
				m.Title, m.Year, m.Rating, m.Votes, m.URL, page.Page,
			})
		}
	}
	if err := writeSheetRows(f, moviesSheet, movieRows); err != nil {
		return err
	}

	const runSheet = "Run"
	if _, err := f.NewSheet(runSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	runRows := [][]interface{}{
		{"Metric", "Value"},
		{"Run ID", result.Run.ID},
		{"Source URL", result.Run.SourceURL},
		{"Pages fetched", result.Run.PagesFetched},
		{"Rows found", result.Run.RowsFound},
		{"Pages from cache", result.Run.FromCache},
		{"Failures", result.Run.Failures},
		{"Skipped rows", result.SkippedRows},
		{"Started at", result.Run.StartedAt.Format("2006-01-02 15:04:05")},
		{"Duration (s)", result.Run.Duration},
	}
	if err := writeSheetRows(f, runSheet, runRows); err != nil {
		return err
	}

	if err := f.SetColWidth(moviesSheet, "A", "A", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(runSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	logging.Info().Str("path", path).Int("rows", result.Run.RowsFound).Msg("Wrote scrape result workbook")
	return nil
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]interface{}) error {
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

func emptyIfZeroInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func emptyIfZeroInt64(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func emptyIfZeroFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
