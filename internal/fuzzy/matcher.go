// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package fuzzy

import (
	"sort"
	"strings"
)

// Candidate is one scored match from a Matcher.
type Candidate struct {
	// Index is the position of the title in the list the Matcher was
	// built from, for joining back to catalog rows.
	Index int `json:"index"`

	Title string `json:"title"`
	Score int    `json:"score"`
}

// Matcher ranks a fixed list of titles against queries. Titles are
// normalized once at construction; Match is safe for concurrent use.
type Matcher struct {
	titles     []string
	normalized []string
}

// NewMatcher builds a matcher over the given titles.
func NewMatcher(titles []string) *Matcher {
	m := &Matcher{
		titles:     titles,
		normalized: make([]string, len(titles)),
	}
	for i, t := range titles {
		m.normalized[i] = Normalize(t)
	}
	return m
}

// Len returns the number of titles the matcher ranks.
func (m *Matcher) Len() int {
	return len(m.titles)
}

// Match returns candidates scoring at least minScore against the
// query, sorted by score descending. Ties break on the plain Ratio so
// the closest whole-string match wins, then on list order. limit <= 0
// returns all qualifying candidates.
func (m *Matcher) Match(query string, minScore, limit int) []Candidate {
	nq := Normalize(query)
	if nq == "" {
		return nil
	}
	rq := []rune(nq)

	type scored struct {
		Candidate
		ratio int
	}
	results := make([]scored, 0, 8)

	for i, nt := range m.normalized {
		if nt == "" {
			continue
		}
		ratio := ratioRunes(rq, []rune(nt))
		score := ratio
		if s := TokenSortRatio(nq, nt); s > score {
			score = s
		}
		if s := TokenSetRatio(nq, nt); s > score {
			score = s
		}
		if score < minScore {
			continue
		}
		results = append(results, scored{
			Candidate: Candidate{Index: i, Title: m.titles[i], Score: score},
			ratio:     ratio,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].ratio != results[j].ratio {
			return results[i].ratio > results[j].ratio
		}
		return results[i].Index < results[j].Index
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = r.Candidate
	}
	return out
}

// Best returns the single best candidate at or above minScore.
func (m *Matcher) Best(query string, minScore int) (Candidate, bool) {
	hits := m.Match(query, minScore, 1)
	if len(hits) == 0 {
		return Candidate{}, false
	}
	return hits[0], true
}

// ContainsFold reports whether title contains the query under
// normalization, the cheap pre-check used before fuzzy scoring.
func ContainsFold(title, query string) bool {
	nq := Normalize(query)
	if nq == "" {
		return false
	}
	return strings.Contains(Normalize(title), nq)
}
