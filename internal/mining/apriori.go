// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package mining

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Config controls the Apriori run.
type Config struct {
	// MinSupport is the minimum fraction of transactions an itemset
	// must appear in, in (0, 1].
	MinSupport float64

	// MinConfidence is the minimum rule confidence in [0, 1].
	MinConfidence float64

	// MinLift filters rules below this lift. Zero keeps all rules.
	MinLift float64

	// MaxLen caps the itemset size. Zero means unbounded.
	MaxLen int

	// NumWorkers parallelizes support counting. Zero or negative uses
	// all CPUs.
	NumWorkers int
}

// DefaultConfig returns miner defaults suited to the liked-movies
// transaction shape: uncommon itemsets are expensive and rarely
// interesting, so the support floor is relatively high.
func DefaultConfig() Config {
	return Config{
		MinSupport:    0.05,
		MinConfidence: 0.3,
		MinLift:       1.0,
		MaxLen:        4,
	}
}

// Itemset is a frequent itemset with its support.
type Itemset struct {
	// Items is sorted ascending.
	Items   []int64 `json:"items"`
	Support float64 `json:"support"`
	Count   int     `json:"count"`
}

// Rule is one association rule derived from a frequent itemset.
type Rule struct {
	Antecedent []int64 `json:"antecedent"`
	Consequent []int64 `json:"consequent"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

// Miner runs Apriori with a fixed configuration. It holds no state
// between calls and is safe for concurrent use.
type Miner struct {
	config Config
}

// NewMiner validates and applies defaults to cfg.
func NewMiner(cfg Config) (*Miner, error) {
	if cfg.MinSupport <= 0 || cfg.MinSupport > 1 {
		return nil, fmt.Errorf("min support must be in (0, 1], got %v", cfg.MinSupport)
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be in [0, 1], got %v", cfg.MinConfidence)
	}
	if cfg.MaxLen < 0 {
		return nil, fmt.Errorf("max length must be >= 0, got %d", cfg.MaxLen)
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	return &Miner{config: cfg}, nil
}

// FrequentItemsets finds all itemsets with support >= MinSupport using
// level-wise candidate generation. Transactions are treated as sets;
// duplicate items within one transaction count once.
func (m *Miner) FrequentItemsets(ctx context.Context, txns [][]int64) ([]Itemset, error) {
	if len(txns) == 0 {
		return nil, nil
	}

	sets := normalizeTransactions(txns)
	total := float64(len(sets))
	// Smallest integer count satisfying count/total >= MinSupport,
	// with an epsilon so 0.05 * 100 does not ceil to 6.
	minCount := int(math.Ceil(m.config.MinSupport*total - 1e-9))
	if minCount < 1 {
		minCount = 1
	}

	// Level 1: singleton counts.
	singles := make(map[int64]int)
	for _, txn := range sets {
		for _, item := range txn {
			singles[item]++
		}
	}

	var frequent []Itemset
	level := make([][]int64, 0, len(singles))
	for item, count := range singles {
		if count < minCount {
			continue
		}
		level = append(level, []int64{item})
		frequent = append(frequent, Itemset{
			Items:   []int64{item},
			Support: float64(count) / total,
			Count:   count,
		})
	}
	sortLevel(level)

	for k := 2; len(level) > 0; k++ {
		if m.config.MaxLen > 0 && k > m.config.MaxLen {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := generateCandidates(level)
		if len(candidates) == 0 {
			break
		}

		counts, err := m.countSupport(ctx, candidates, sets)
		if err != nil {
			return nil, err
		}

		next := make([][]int64, 0, len(candidates))
		for i, cand := range candidates {
			if counts[i] < minCount {
				continue
			}
			next = append(next, cand)
			frequent = append(frequent, Itemset{
				Items:   cand,
				Support: float64(counts[i]) / total,
				Count:   counts[i],
			})
		}
		sortLevel(next)
		level = next
	}

	sort.SliceStable(frequent, func(i, j int) bool {
		if len(frequent[i].Items) != len(frequent[j].Items) {
			return len(frequent[i].Items) < len(frequent[j].Items)
		}
		if frequent[i].Support != frequent[j].Support {
			return frequent[i].Support > frequent[j].Support
		}
		return lessItems(frequent[i].Items, frequent[j].Items)
	})
	return frequent, nil
}

// Rules enumerates association rules from frequent itemsets, keeping
// those clearing the confidence and lift floors. Results sort by lift
// descending, then confidence, then support.
func (m *Miner) Rules(ctx context.Context, itemsets []Itemset) ([]Rule, error) {
	support := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		support[itemsKey(is.Items)] = is.Support
	}

	var rules []Rule
	for _, is := range itemsets {
		if len(is.Items) < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Every non-empty proper subset is an antecedent candidate.
		n := len(is.Items)
		for mask := 1; mask < (1<<n)-1; mask++ {
			ante := make([]int64, 0, n)
			cons := make([]int64, 0, n)
			for bit := 0; bit < n; bit++ {
				if mask&(1<<bit) != 0 {
					ante = append(ante, is.Items[bit])
				} else {
					cons = append(cons, is.Items[bit])
				}
			}

			anteSupport, ok := support[itemsKey(ante)]
			if !ok || anteSupport == 0 {
				continue
			}
			confidence := is.Support / anteSupport
			if confidence < m.config.MinConfidence {
				continue
			}

			consSupport, ok := support[itemsKey(cons)]
			if !ok || consSupport == 0 {
				continue
			}
			lift := confidence / consSupport
			if m.config.MinLift > 0 && lift < m.config.MinLift {
				continue
			}

			rules = append(rules, Rule{
				Antecedent: ante,
				Consequent: cons,
				Support:    is.Support,
				Confidence: confidence,
				Lift:       lift,
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		return lessItems(rules[i].Antecedent, rules[j].Antecedent)
	})
	return rules, nil
}

// Mine runs both phases.
func (m *Miner) Mine(ctx context.Context, txns [][]int64) ([]Itemset, []Rule, error) {
	itemsets, err := m.FrequentItemsets(ctx, txns)
	if err != nil {
		return nil, nil, err
	}
	rules, err := m.Rules(ctx, itemsets)
	if err != nil {
		return nil, nil, err
	}
	return itemsets, rules, nil
}

// countSupport counts candidate occurrences across transactions with
// one goroutine per chunk, each filling a private table.
func (m *Miner) countSupport(ctx context.Context, candidates [][]int64, txns [][]int64) ([]int, error) {
	workers := m.config.NumWorkers
	if workers > len(txns) {
		workers = len(txns)
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (len(txns) + workers - 1) / workers

	tables := make([][]int, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(txns) {
			end = len(txns)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			counts := make([]int, len(candidates))
			for t, txn := range txns[start:end] {
				if t%256 == 0 && ctx.Err() != nil {
					return
				}
				for c, cand := range candidates {
					if len(cand) <= len(txn) && subsetSorted(cand, txn) {
						counts[c]++
					}
				}
			}
			tables[w] = counts
		}(w, start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make([]int, len(candidates))
	for _, table := range tables {
		for i, c := range table {
			merged[i] += c
		}
	}
	return merged, nil
}

// generateCandidates joins k-1 itemsets sharing all but their last
// item, then prunes candidates with an infrequent k-1 subset.
func generateCandidates(level [][]int64) [][]int64 {
	prev := make(map[string]struct{}, len(level))
	for _, is := range level {
		prev[itemsKey(is)] = struct{}{}
	}

	var candidates [][]int64
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			k := len(a)
			if !equalPrefix(a, b, k-1) {
				// Level is sorted, so no later j can share the prefix.
				break
			}

			cand := make([]int64, k+1)
			copy(cand, a)
			cand[k] = b[k-1]

			if allSubsetsFrequent(cand, prev) {
				candidates = append(candidates, cand)
			}
		}
	}
	return candidates
}

// allSubsetsFrequent checks the Apriori downward-closure property for
// every k-1 subset of cand.
func allSubsetsFrequent(cand []int64, prev map[string]struct{}) bool {
	sub := make([]int64, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, item := range cand {
			if i != skip {
				sub = append(sub, item)
			}
		}
		if _, ok := prev[itemsKey(sub)]; !ok {
			return false
		}
	}
	return true
}

// normalizeTransactions sorts each transaction and drops duplicate
// items so containment checks can merge-scan.
func normalizeTransactions(txns [][]int64) [][]int64 {
	out := make([][]int64, 0, len(txns))
	for _, txn := range txns {
		if len(txn) == 0 {
			out = append(out, nil)
			continue
		}
		set := make([]int64, len(txn))
		copy(set, txn)
		sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

		dedup := set[:1]
		for _, item := range set[1:] {
			if item != dedup[len(dedup)-1] {
				dedup = append(dedup, item)
			}
		}
		out = append(out, dedup)
	}
	return out
}

// subsetSorted reports whether every element of needle appears in
// haystack. Both must be sorted ascending.
func subsetSorted(needle, haystack []int64) bool {
	i := 0
	for _, h := range haystack {
		if i == len(needle) {
			return true
		}
		if needle[i] == h {
			i++
		} else if needle[i] < h {
			return false
		}
	}
	return i == len(needle)
}

func equalPrefix(a, b []int64, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lessItems(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func sortLevel(level [][]int64) {
	sort.Slice(level, func(i, j int) bool { return lessItems(level[i], level[j]) })
}

func itemsKey(items []int64) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(item, 10))
	}
	return b.String()
}
