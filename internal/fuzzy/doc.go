// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package fuzzy implements approximate string matching for movie
// titles, following the conventional fuzzy-matching score family:
//
//   - Ratio: normalized indel similarity of the whole strings
//   - PartialRatio: best Ratio of the first string against any
//     equally long window of the second
//   - TokenSortRatio: Ratio after sorting whitespace tokens
//   - TokenSetRatio: Ratio over token set intersections and
//     differences, forgiving of extra words
//
// All scores are integers in [0, 100]. Inputs are normalized first:
// lowercased, punctuation mapped to spaces, whitespace collapsed. A
// string that is empty after normalization scores 0 against anything.
//
// Matcher ranks a fixed title list against a query, combining the
// scorers, and backs the approximate title lookup used by the
// recommender and the CLI:
//
//	m := fuzzy.NewMatcher(titles)
//	hits := m.Match("toy sotry", 60, 5)
package fuzzy
