// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/mining"
)

const defaultRuleLimit = 50

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Transactions   string
	MinSupport     float64
	MinConfidence  float64
	MinLift        float64
	MaxLen         int
	LikedThreshold float64
	Limit          int
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Mine association rules from the dataset",
		Long: `Run frequent itemset mining and derive association rules.

Two transaction encodings are available:
  liked   one transaction per user holding the movies they rated at or
          above the liked threshold
  genres  one transaction per movie holding its genre labels

Rules are ordered by lift, so the --limit flag keeps the strongest.`,
		Example: `  # Movies that are liked together
  lodestone rules --ratings ratings.csv --movies movies.csv

  # Genre co-occurrence with tighter thresholds
  lodestone rules --transactions genres --min-support 0.1 --min-confidence 0.5

  # Top 20 rules as JSON
  lodestone rules --limit 20 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Transactions, "transactions", "t", "liked", "Transaction encoding: liked, genres")
	cmd.Flags().Float64Var(&opts.MinSupport, "min-support", 0, "Minimum itemset support (default from miner)")
	cmd.Flags().Float64Var(&opts.MinConfidence, "min-confidence", 0, "Minimum rule confidence (default from miner)")
	cmd.Flags().Float64Var(&opts.MinLift, "min-lift", 0, "Minimum rule lift (default from miner)")
	cmd.Flags().IntVar(&opts.MaxLen, "max-len", 0, "Maximum itemset length (default from miner)")
	cmd.Flags().Float64Var(&opts.LikedThreshold, "liked-threshold", 0, "Rating at or above which a movie counts as liked (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", defaultRuleLimit, "Maximum number of rules to show")

	_ = cmd.RegisterFlagCompletionFunc("transactions", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"liked", "genres"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRules(cmd *cobra.Command, opts *RulesOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	cfg := mining.DefaultConfig()
	if opts.MinSupport > 0 {
		cfg.MinSupport = opts.MinSupport
	}
	if opts.MinConfidence > 0 {
		cfg.MinConfidence = opts.MinConfidence
	}
	if opts.MinLift > 0 {
		cfg.MinLift = opts.MinLift
	}
	if opts.MaxLen > 0 {
		cfg.MaxLen = opts.MaxLen
	}

	var (
		txns     [][]int64
		itemName func(int64) string
	)
	switch opts.Transactions {
	case "genres":
		movies, _, err := w.loadMovies("")
		if err != nil {
			return err
		}
		var names []string
		txns, names = mining.GenreTransactions(movies)
		itemName = func(id int64) string {
			if id >= 0 && int(id) < len(names) {
				return names[id]
			}
			return ""
		}
	case "liked":
		ratings, movies, err := w.loadCatalog()
		if err != nil {
			return err
		}
		threshold := opts.LikedThreshold
		if threshold <= 0 {
			threshold = w.likedThreshold()
		}
		titles := make(map[int64]string, len(movies))
		for _, m := range movies {
			titles[m.MovieID] = m.Title
		}
		txns = mining.LikedTransactions(ratings, threshold)
		itemName = func(id int64) string { return titles[id] }
	default:
		return fmt.Errorf("unknown transaction encoding %q, want liked or genres", opts.Transactions)
	}

	if len(txns) == 0 {
		return errors.New("no transactions to mine, check the input files and thresholds")
	}

	miner, err := mining.NewMiner(cfg)
	if err != nil {
		return err
	}
	itemsets, rules, err := miner.Mine(cmd.Context(), txns)
	if err != nil {
		return err
	}

	// Rules arrive ordered by lift, so truncation keeps the strongest.
	total := len(rules)
	if opts.Limit > 0 && len(rules) > opts.Limit {
		rules = rules[:opts.Limit]
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		type jsonRule struct {
			Antecedent []string `json:"antecedent"`
			Consequent []string `json:"consequent"`
			Support    float64  `json:"support"`
			Confidence float64  `json:"confidence"`
			Lift       float64  `json:"lift"`
		}
		doc := struct {
			Transactions string     `json:"transactions"`
			TxnCount     int        `json:"txn_count"`
			ItemsetCount int        `json:"itemset_count"`
			RuleCount    int        `json:"rule_count"`
			Rules        []jsonRule `json:"rules"`
		}{opts.Transactions, len(txns), len(itemsets), total, make([]jsonRule, 0, len(rules))}
		for _, r := range rules {
			doc.Rules = append(doc.Rules, jsonRule{
				Antecedent: labelItems(r.Antecedent, itemName),
				Consequent: labelItems(r.Consequent, itemName),
				Support:    r.Support,
				Confidence: r.Confidence,
				Lift:       r.Lift,
			})
		}
		return renderJSON(out, doc)
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			strings.Join(labelItems(r.Antecedent, itemName), ", "),
			strings.Join(labelItems(r.Consequent, itemName), ", "),
			formatFloat(r.Support),
			formatFloat(r.Confidence),
			formatFloat2(r.Lift),
		})
	}
	renderRows(out, w.Format, []string{"Antecedent", "Consequent", "Support", "Confidence", "Lift"}, rows)
	fmt.Fprintf(out, "(%d rules from %d itemsets over %d transactions)\n", total, len(itemsets), len(txns))
	return nil
}

// labelItems maps item IDs to display labels, keeping the raw ID as a
// decimal string when no label exists.
func labelItems(items []int64, name func(int64) string) []string {
	out := make([]string, len(items))
	for i, id := range items {
		if label := name(id); label != "" {
			out[i] = label
		} else {
			out[i] = strconv.FormatInt(id, 10)
		}
	}
	return out
}
