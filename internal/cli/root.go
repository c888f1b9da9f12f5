// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package cli assembles the lodestone workbench command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/lodestone/internal/cli/commands"
	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// Version information (set at build time via -ldflags).
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile      string
	ratingsPath  string
	moviesPath   string
	artifactsDir string
	outputFormat string
	verbose      bool
)

// NewRootCmd builds the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lodestone",
		Short: "Lodestone - Data Mining Workbench and Recommendation Engine",
		Long: `Lodestone is a data mining workbench for movie-ratings datasets.

Commands load the ratings and movies CSV files directly; no server or
database is required. Clean and describe a dataset, mine association
rules, train classifiers, cluster the catalog, fit regressions, scrape
listing pages, and train and query the recommendation engine, all from
the command line.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			// Keep the terminal quiet unless asked; analysis results
			// go to stdout, logs to stderr.
			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Init(logging.Config{Level: level, Format: "console"})

			cfg, err := config.LoadWorkbench(cfgFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cfg, cmd.Flags())

			commands.SetWorkbench(&commands.Workbench{Config: cfg, Format: outputFormat})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{.Name}} {{.Version}} (%s, built %s)
Data Mining Workbench and Recommendation Engine
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&ratingsPath, "ratings", "", "path to the ratings CSV (userId,movieId,rating,timestamp)")
	rootCmd.PersistentFlags().StringVar(&moviesPath, "movies", "", "path to the movies CSV (movieId,title,genres)")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts-dir", "", "directory for reports and exports (default: ./artifacts)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table|csv|markdown|json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewCleanCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewClassifyCommand())
	rootCmd.AddCommand(commands.NewClusterCommand())
	rootCmd.AddCommand(commands.NewRegressCommand())
	rootCmd.AddCommand(commands.NewScrapeCommand())
	rootCmd.AddCommand(commands.NewRecommendCommand())
	rootCmd.AddCommand(commands.NewSimilarCommand())
	rootCmd.AddCommand(commands.NewEvaluateCommand())
	rootCmd.AddCommand(commands.NewGridSearchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// applyFlagOverrides layers dataset flags over the loaded config.
// Only flags the user actually set win over file and environment
// values, so an unset flag never clobbers a configured path.
func applyFlagOverrides(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("ratings") {
		cfg.Dataset.RatingsPath = ratingsPath
	}
	if fs.Changed("movies") {
		cfg.Dataset.MoviesPath = moviesPath
	}
	if fs.Changed("artifacts-dir") {
		cfg.Dataset.ArtifactsDir = artifactsDir
	}
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
