// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/scrape"
)

// ScrapeOptions holds options for the scrape command.
type ScrapeOptions struct {
	Browser  bool
	NoCache  bool
	MaxPages int
	Out      string
	XLSX     string
	DB       string
}

// NewScrapeCommand creates the scrape command.
func NewScrapeCommand() *cobra.Command {
	opts := &ScrapeOptions{}
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a paginated movie listing",
		Long: `Fetch a movie listing page, extract its table rows, and follow next
links until the listing ends or the page cap is reached. Fetches are
rate limited, circuit broken and cached per the scrape configuration,
so rerunning a scrape within the cache TTL does not hit the site again.

Pages rendered by JavaScript need --browser, which drives a headless
Chrome through chromedp instead of a plain HTTP client.

A failure after the first page keeps the rows collected so far; the
run summary counts the failure.`,
		Example: `  # Scrape a listing and write the rows as CSV
  lodestone scrape https://example.com/movies --out scraped.csv

  # JavaScript-rendered listing, first 3 pages, full workbook
  lodestone scrape https://example.com/movies --browser --max-pages 3 --xlsx scrape.xlsx

  # Persist the run and rows into a DuckDB file
  lodestone scrape https://example.com/movies --db data/lodestone.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Browser, "browser", false, "Render pages with headless Chrome")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Skip the page cache")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Pagination cap (default from config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Path for the scraped rows CSV")
	cmd.Flags().StringVar(&opts.XLSX, "xlsx", "", "Path for an xlsx workbook with run summary and per-page sheets")
	cmd.Flags().StringVar(&opts.DB, "db", "", "DuckDB file to persist the run and rows into")

	return cmd
}

func runScrape(cmd *cobra.Command, startURL string, opts *ScrapeOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}
	cfg := &w.Config.Scrape

	var inner scrape.Fetcher
	if opts.Browser {
		inner = scrape.NewBrowserFetcher(cfg)
	} else {
		inner = scrape.NewHTTPFetcher(cfg)
	}

	var cache *scrape.PageCache
	if !opts.NoCache {
		cache, err = scrape.NewPageCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("open page cache: %w", err)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logging.Warn().Err(err).Msg("Page cache close failed")
			}
		}()
	}

	fetcher := scrape.NewPoliteFetcher(inner, cache, cfg)
	defer func() {
		if err := fetcher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Fetcher close failed")
		}
	}()

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = cfg.MaxPages
	}

	scraper := scrape.NewMovieScraper(fetcher, maxPages)
	result, scrapeErr := scraper.Scrape(cmd.Context(), startURL)
	if result == nil {
		return scrapeErr
	}

	// Partial results are still written out; the fetch error surfaces
	// after so a late page failure does not discard collected rows.
	movies := result.AllMovies()
	if opts.Out != "" {
		if err := scrape.WriteScrapedCSV(w.artifactPath(opts.Out), movies); err != nil {
			return err
		}
	}
	if opts.XLSX != "" {
		if err := scrape.WriteScrapedXLSX(w.artifactPath(opts.XLSX), result); err != nil {
			return err
		}
	}
	if opts.DB != "" {
		if err := persistScrape(cmd.Context(), w, opts.DB, result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		if err := renderJSON(out, result); err != nil {
			return err
		}
		return scrapeErr
	}

	run := result.Run
	renderRows(out, w.Format, []string{"Measure", "Value"}, [][]string{
		{"run id", run.ID},
		{"source", run.SourceURL},
		{"pages fetched", formatInt(run.PagesFetched)},
		{"rows found", formatInt(run.RowsFound)},
		{"from cache", formatInt(run.FromCache)},
		{"failures", formatInt(run.Failures)},
		{"skipped rows", formatInt(result.SkippedRows)},
		{"duration", fmt.Sprintf("%.2fs", run.Duration)},
	})

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		year := ""
		if m.Year > 0 {
			year = formatInt(m.Year)
		}
		rating := ""
		if m.Rating > 0 {
			rating = formatFloat2(m.Rating)
		}
		votes := ""
		if m.Votes > 0 {
			votes = formatInt64(m.Votes)
		}
		rows = append(rows, []string{m.Title, year, rating, votes})
	}
	renderRows(out, w.Format, []string{"Title", "Year", "Rating", "Votes"}, rows)
	return scrapeErr
}

// persistScrape records the run summary and every page's rows in a
// DuckDB file, the same tables the ingest pipeline reads.
func persistScrape(ctx context.Context, w *Workbench, path string, result *scrape.Result) error {
	dbCfg := w.Config.Database
	dbCfg.Path = path
	db, err := database.New(&dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Database close failed")
		}
	}()

	if err := db.RecordScrapeRun(ctx, &result.Run); err != nil {
		return err
	}
	for _, page := range result.Pages {
		if err := db.SaveScrapedMovies(ctx, result.Run.ID, page.URL, page.Page, page.Movies); err != nil {
			return err
		}
	}
	return nil
}
