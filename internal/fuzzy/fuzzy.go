// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Normalize lowercases s, maps punctuation to spaces and collapses
// runs of whitespace. All scorers normalize their inputs with it.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Levenshtein returns the edit distance between a and b counted in
// runes, using two rolling rows so memory stays proportional to the
// shorter string.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// lcsLength returns the longest-common-subsequence length of two rune
// slices with rolling rows.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}

// ratioRunes scores two already normalized rune slices: the indel
// similarity 2*LCS / (len(a)+len(b)) scaled to [0, 100].
func ratioRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return int(math.Round(200 * float64(lcs) / float64(len(a)+len(b))))
}

// Ratio scores the whole-string similarity of a and b in [0, 100].
// It is symmetric, and equal strings score 100.
func Ratio(a, b string) int {
	return ratioRunes([]rune(Normalize(a)), []rune(Normalize(b)))
}

// PartialRatio scores how well a appears within b: the best Ratio of a
// against every len(a)-sized window of b. When a is longer than b it
// degrades to the plain Ratio, so the score is not symmetric.
func PartialRatio(a, b string) int {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) >= len(rb) {
		return ratioRunes(ra, rb)
	}

	best := 0
	for start := 0; start+len(ra) <= len(rb); start++ {
		score := ratioRunes(ra, rb[start:start+len(ra)])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio scores a and b after sorting their whitespace tokens,
// making the score word-order independent.
func TokenSortRatio(a, b string) int {
	return ratioRunes([]rune(sortTokens(a)), []rune(sortTokens(b)))
}

// TokenSetRatio scores a and b over token set algebra: the sorted
// intersection is compared with the intersection plus each side's
// leftover tokens, and the best of the three comparisons wins. Extra
// words on either side are mostly forgiven.
func TokenSetRatio(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, diffA, diffB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(inter, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	r0 := []rune(base)
	r1 := []rune(withA)
	r2 := []rune(withB)

	best := ratioRunes(r1, r2)
	if len(r0) > 0 {
		if s := ratioRunes(r0, r1); s > best {
			best = s
		}
		if s := ratioRunes(r0, r2); s > best {
			best = s
		}
	}
	return best
}

func sortTokens(s string) string {
	fields := strings.Fields(Normalize(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Normalize(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
