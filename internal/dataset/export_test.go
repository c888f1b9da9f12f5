// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/lodestone/internal/models"
)

func TestWriteRatingsCSV(t *testing.T) {
	ratings := []models.Rating{
		rating(1, 31, 2.5, 1260759144),
		rating(2, 10, 4.0, 835355493),
	}
	path := filepath.Join(t.TempDir(), "out", "ratings.csv")

	if err := WriteRatingsCSV(path, ratings); err != nil {
		t.Fatalf("WriteRatingsCSV() error = %v", err)
	}

	loaded, stats, err := LoadRatings(path)
	if err != nil {
		t.Fatalf("LoadRatings() error = %v", err)
	}
	if stats.BadRows != 0 {
		t.Errorf("BadRows = %d, want 0", stats.BadRows)
	}
	if len(loaded) != len(ratings) {
		t.Fatalf("len(loaded) = %d, want %d", len(loaded), len(ratings))
	}
	for i := range ratings {
		if loaded[i] != ratings[i] {
			t.Errorf("row %d = %+v, want %+v", i, loaded[i], ratings[i])
		}
	}
}

func TestWriteCleanReportCSV(t *testing.T) {
	report := models.CleanReport{
		Source:     "ratings",
		RowsRead:   100,
		RowsKept:   90,
		Duplicates: 5,
		OutOfRange: 5,
	}
	path := filepath.Join(t.TempDir(), "report.csv")

	if err := WriteCleanReportCSV(path, report); err != nil {
		t.Fatalf("WriteCleanReportCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if got := records[0]; got[0] != "metric" || got[1] != "value" {
		t.Errorf("header = %v, want metric,value", got)
	}
	want := map[string]string{
		"source":       "ratings",
		"rows_read":    "100",
		"rows_kept":    "90",
		"rows_dropped": "10",
		"duplicates":   "5",
		"out_of_range": "5",
	}
	got := make(map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		got[rec[0]] = rec[1]
	}
	for metric, value := range want {
		if got[metric] != value {
			t.Errorf("%s = %q, want %q", metric, got[metric], value)
		}
	}
}

func TestWriteCleanReportXLSX(t *testing.T) {
	report := models.CleanReport{
		Source:     "ratings",
		RowsRead:   100,
		RowsKept:   90,
		Duplicates: 5,
		OutOfRange: 5,
	}
	stats := models.DatasetStats{
		NumRatings:  90,
		NumUsers:    10,
		NumMovies:   20,
		GenreCounts: map[string]int{"Drama": 12, "Comedy": 8},
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteCleanReportXLSX(path, report, stats); err != nil {
		t.Fatalf("WriteCleanReportXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	wantSheets := map[string]bool{"Cleaning": false, "Statistics": false}
	for _, s := range sheets {
		if _, ok := wantSheets[s]; ok {
			wantSheets[s] = true
		}
	}
	for name, found := range wantSheets {
		if !found {
			t.Errorf("sheet %q missing from workbook (got %v)", name, sheets)
		}
	}

	rowsRead, err := f.GetCellValue("Cleaning", "B3")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if rowsRead != "100" {
		t.Errorf("Cleaning!B3 = %q, want 100", rowsRead)
	}

	users, err := f.GetCellValue("Statistics", "B3")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if users != "10" {
		t.Errorf("Statistics!B3 = %q, want 10", users)
	}
}
