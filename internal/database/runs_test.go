// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/lodestone/internal/models"
)

func TestStartAnalysisRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	run, err := db.StartAnalysisRun(ctx, models.AnalysisRules, `{"min_support":0.1}`)
	checkNoError(t, err)
	checkStringNotEmpty(t, "run.ID", run.ID)
	checkStringEqual(t, "run.Kind", run.Kind, models.AnalysisRules)
	checkStringEqual(t, "run.Status", run.Status, models.RunStatusRunning)

	got, err := db.GetAnalysisRun(ctx, run.ID)
	checkNoError(t, err)
	if got == nil {
		t.Fatal("GetAnalysisRun returned nil for a just-started run")
	}
	checkStringEqual(t, "got.Params", got.Params, `{"min_support":0.1}`)
	checkStringEqual(t, "got.Status", got.Status, models.RunStatusRunning)
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil while running", got.CompletedAt)
	}
}

func TestStartAnalysisRun_Defaults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run, err := db.StartAnalysisRun(context.Background(), models.AnalysisCluster, "")
	checkNoError(t, err)
	checkStringEqual(t, "run.Params", run.Params, "{}")
}

func TestStartAnalysisRun_InvalidKind(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.StartAnalysisRun(context.Background(), "astrology", "{}")
	checkError(t, err)
}

func TestCompleteAnalysisRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	run, err := db.StartAnalysisRun(ctx, models.AnalysisEvaluate, "{}")
	checkNoError(t, err)

	checkNoError(t, db.CompleteAnalysisRun(ctx, run.ID, `{"ndcg":0.42}`))

	got, err := db.GetAnalysisRun(ctx, run.ID)
	checkNoError(t, err)
	checkStringEqual(t, "got.Status", got.Status, models.RunStatusCompleted)
	checkStringEqual(t, "got.Result", got.Result, `{"ndcg":0.42}`)
	checkStringEqual(t, "got.Error", got.Error, "")
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt = nil after completion")
	}
	if got.DurationMS < 0 {
		t.Errorf("DurationMS = %d, want non-negative", got.DurationMS)
	}
}

func TestFailAnalysisRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	run, err := db.StartAnalysisRun(ctx, models.AnalysisRegress, "{}")
	checkNoError(t, err)

	checkNoError(t, db.FailAnalysisRun(ctx, run.ID, "singular design matrix"))

	got, err := db.GetAnalysisRun(ctx, run.ID)
	checkNoError(t, err)
	checkStringEqual(t, "got.Status", got.Status, models.RunStatusFailed)
	checkStringEqual(t, "got.Error", got.Error, "singular design matrix")
	checkStringEqual(t, "got.Result", got.Result, "")
}

func TestFinishAnalysisRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	checkError(t, db.CompleteAnalysisRun(ctx, "no-such-run", "{}"))
	checkError(t, db.FailAnalysisRun(ctx, "no-such-run", "boom"))
	checkError(t, db.CompleteAnalysisRun(ctx, "", "{}"))
}

func TestGetAnalysisRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	got, err := db.GetAnalysisRun(context.Background(), "no-such-run")
	checkNoError(t, err)
	if got != nil {
		t.Errorf("GetAnalysisRun = %+v, want nil", got)
	}
}

func TestListAnalysisRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	ids := make(map[string]bool)
	for _, kind := range []string{models.AnalysisRules, models.AnalysisRules, models.AnalysisCluster} {
		run, err := db.StartAnalysisRun(ctx, kind, "{}")
		checkNoError(t, err)
		ids[run.ID] = true
	}

	all, err := db.ListAnalysisRuns(ctx, "", 0)
	checkNoError(t, err)
	checkSliceLen(t, "all runs", len(all), 3)
	for _, run := range all {
		if !ids[run.ID] {
			t.Errorf("unexpected run id %s in listing", run.ID)
		}
	}

	rules, err := db.ListAnalysisRuns(ctx, models.AnalysisRules, 0)
	checkNoError(t, err)
	checkSliceLen(t, "rules runs", len(rules), 2)

	limited, err := db.ListAnalysisRuns(ctx, "", 1)
	checkNoError(t, err)
	checkSliceLen(t, "limited runs", len(limited), 1)

	_, err = db.ListAnalysisRuns(ctx, "astrology", 0)
	checkError(t, err)

	count, err := db.CountAnalysisRuns(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "CountAnalysisRuns", count, 3)
}
