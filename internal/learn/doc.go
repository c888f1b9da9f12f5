// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package learn implements the supervised learning unit: k-nearest
// neighbor and Gaussian naive Bayes classifiers over movie feature
// vectors, plus the evaluation report (accuracy, confusion matrix,
// per-class precision/recall/F1).
//
// Feature matrices come from MovieFeatures, which combines the genre
// indicator columns with numeric features (release year, mean rating,
// rating count). A typical flow:
//
//	fs := learn.MovieFeatures(movies, ratings)
//	knn := learn.NewKNNClassifier(5, learn.Euclidean)
//	if err := knn.Fit(trainX, trainY); err != nil { ... }
//	pred, err := knn.Predict(ctx, testX)
//	report := learn.EvaluateClassifier(pred, testY)
//
// Both classifiers are read-only after Fit and safe for concurrent
// prediction.
package learn
