// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateClassifier(t *testing.T) {
	actual := []string{"a", "a", "a", "b", "b"}
	predicted := []string{"a", "a", "b", "b", "a"}

	report, err := EvaluateClassifier(predicted, actual)
	if err != nil {
		t.Fatalf("EvaluateClassifier() error = %v", err)
	}

	if !almostEqual(report.Accuracy, 0.6) {
		t.Errorf("Accuracy = %v, want 0.6", report.Accuracy)
	}
	if report.Total != 5 {
		t.Errorf("Total = %d, want 5", report.Total)
	}

	if report.Confusion["a"]["a"] != 2 || report.Confusion["a"]["b"] != 1 {
		t.Errorf("confusion row a = %v, want map[a:2 b:1]", report.Confusion["a"])
	}
	if report.Confusion["b"]["b"] != 1 || report.Confusion["b"]["a"] != 1 {
		t.Errorf("confusion row b = %v, want map[a:1 b:1]", report.Confusion["b"])
	}

	a := report.PerClass["a"]
	if !almostEqual(a.Precision, 2.0/3.0) {
		t.Errorf("a precision = %v, want 2/3", a.Precision)
	}
	if !almostEqual(a.Recall, 2.0/3.0) {
		t.Errorf("a recall = %v, want 2/3", a.Recall)
	}
	if a.Support != 3 {
		t.Errorf("a support = %d, want 3", a.Support)
	}

	b := report.PerClass["b"]
	if !almostEqual(b.Precision, 0.5) {
		t.Errorf("b precision = %v, want 0.5", b.Precision)
	}
	if !almostEqual(b.Recall, 0.5) {
		t.Errorf("b recall = %v, want 0.5", b.Recall)
	}

	wantMacroP := (2.0/3.0 + 0.5) / 2
	if !almostEqual(report.MacroPrecision, wantMacroP) {
		t.Errorf("MacroPrecision = %v, want %v", report.MacroPrecision, wantMacroP)
	}
}

func TestEvaluateClassifier_PerfectPrediction(t *testing.T) {
	labels := []string{"x", "y", "x", "z"}

	report, err := EvaluateClassifier(labels, labels)
	if err != nil {
		t.Fatalf("EvaluateClassifier() error = %v", err)
	}

	if report.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0", report.Accuracy)
	}
	if report.MacroF1 != 1.0 {
		t.Errorf("MacroF1 = %v, want 1.0", report.MacroF1)
	}
}

func TestEvaluateClassifier_UnknownLabels(t *testing.T) {
	// The actual set contains a class the classifier never saw and
	// never predicts; it scores zero without panicking.
	actual := []string{"a", "a", "mystery"}
	predicted := []string{"a", "a", "a"}

	report, err := EvaluateClassifier(predicted, actual)
	if err != nil {
		t.Fatalf("EvaluateClassifier() error = %v", err)
	}

	if !almostEqual(report.Accuracy, 2.0/3.0) {
		t.Errorf("Accuracy = %v, want 2/3", report.Accuracy)
	}
	m := report.PerClass["mystery"]
	if m.Recall != 0 || m.Precision != 0 || m.F1 != 0 {
		t.Errorf("mystery metrics = %+v, want zeros", m)
	}
	if m.Support != 1 {
		t.Errorf("mystery support = %d, want 1", m.Support)
	}
}

func TestEvaluateClassifier_LengthMismatch(t *testing.T) {
	if _, err := EvaluateClassifier([]string{"a"}, []string{"a", "b"}); err == nil {
		t.Error("EvaluateClassifier() = nil error for length mismatch")
	}
}

func TestEvaluateClassifier_Empty(t *testing.T) {
	report, err := EvaluateClassifier(nil, nil)
	if err != nil {
		t.Fatalf("EvaluateClassifier() error = %v", err)
	}
	if report.Accuracy != 0 || report.Total != 0 {
		t.Errorf("empty report = %+v, want zeros", report)
	}
}
