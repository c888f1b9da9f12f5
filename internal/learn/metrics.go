// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"fmt"
	"sort"
)

// ClassMetrics holds the per-class scores of a classification run.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport summarizes predictions against ground truth.
type ClassificationReport struct {
	Accuracy float64 `json:"accuracy"`

	// Confusion maps actual label -> predicted label -> count. Labels
	// seen only in the test set appear as rows with no correct cell.
	Confusion map[string]map[string]int `json:"confusion"`

	// PerClass is keyed by every label observed in either slice.
	PerClass map[string]ClassMetrics `json:"per_class"`

	// Macro averages weigh every class equally regardless of support.
	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
	MacroF1        float64 `json:"macro_f1"`

	Total int `json:"total"`
}

// EvaluateClassifier scores predicted labels against actual labels.
// Labels absent from the training set simply never match and count as
// misses.
func EvaluateClassifier(predicted, actual []string) (ClassificationReport, error) {
	if len(predicted) != len(actual) {
		return ClassificationReport{}, fmt.Errorf("predicted (%d) and actual (%d) lengths differ", len(predicted), len(actual))
	}

	report := ClassificationReport{
		Confusion: make(map[string]map[string]int),
		PerClass:  make(map[string]ClassMetrics),
		Total:     len(actual),
	}
	if len(actual) == 0 {
		return report, nil
	}

	labelSet := make(map[string]struct{})
	correct := 0
	for i := range actual {
		labelSet[actual[i]] = struct{}{}
		labelSet[predicted[i]] = struct{}{}
		if report.Confusion[actual[i]] == nil {
			report.Confusion[actual[i]] = make(map[string]int)
		}
		report.Confusion[actual[i]][predicted[i]]++
		if predicted[i] == actual[i] {
			correct++
		}
	}
	report.Accuracy = float64(correct) / float64(len(actual))

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var sumP, sumR, sumF float64
	for _, label := range labels {
		tp := report.Confusion[label][label]

		// Support and false negatives from the actual row.
		support := 0
		for _, count := range report.Confusion[label] {
			support += count
		}

		// False positives from other rows predicting this label.
		fp := 0
		for other, row := range report.Confusion {
			if other == label {
				continue
			}
			fp += row[label]
		}

		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		report.PerClass[label] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
		sumP += precision
		sumR += recall
		sumF += f1
	}

	n := float64(len(labels))
	report.MacroPrecision = sumP / n
	report.MacroRecall = sumR / n
	report.MacroF1 = sumF / n
	return report, nil
}
