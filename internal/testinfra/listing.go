// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultListingImage serves the generated fixture pages.
	DefaultListingImage = "nginx:1.27-alpine"

	// DefaultListingPort is nginx's HTTP port inside the container.
	DefaultListingPort = "80"

	// listingDocRoot is nginx's default static document root.
	listingDocRoot = "/usr/share/nginx/html"
)

// ListingContainer is a running web server hosting a paginated movie
// listing for scraper integration tests. Page N links to page N+1 with
// rel="next"; the last page has no next link, so a pagination walk
// terminates naturally.
type ListingContainer struct {
	testcontainers.Container
	URL           string
	Pages         int
	MoviesPerPage int
}

// ListingOption configures the listing container.
type ListingOption func(*listingConfig)

type listingConfig struct {
	image         string
	pages         int
	moviesPerPage int
	startTimeout  time.Duration
}

// WithListingImage sets a custom web server image.
func WithListingImage(image string) ListingOption {
	return func(c *listingConfig) {
		c.image = image
	}
}

// WithPages sets how many listing pages the fixture serves.
func WithPages(pages int) ListingOption {
	return func(c *listingConfig) {
		c.pages = pages
	}
}

// WithMoviesPerPage sets the number of table rows per page.
func WithMoviesPerPage(n int) ListingOption {
	return func(c *listingConfig) {
		c.moviesPerPage = n
	}
}

// WithStartTimeout sets the timeout for waiting for the server to start.
func WithStartTimeout(timeout time.Duration) ListingOption {
	return func(c *listingConfig) {
		c.startTimeout = timeout
	}
}

// NewListingContainer starts a web server container and uploads the
// generated listing pages into its document root.
//
// Example:
//
//	ctx := context.Background()
//	listing, err := NewListingContainer(ctx, WithPages(3))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer listing.Terminate(ctx)
//
//	result, err := scraper.Scrape(ctx, listing.StartURL())
func NewListingContainer(ctx context.Context, opts ...ListingOption) (*ListingContainer, error) {
	cfg := &listingConfig{
		image:         DefaultListingImage,
		pages:         3,
		moviesPerPage: 20,
		startTimeout:  60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.pages < 1 {
		cfg.pages = 1
	}
	if cfg.moviesPerPage < 1 {
		cfg.moviesPerPage = 1
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultListingPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultListingPort+"/tcp"),
			wait.ForHTTP("/").WithPort(DefaultListingPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing container: %w", err)
	}

	// Upload the fixture pages. Static files are servable the moment
	// they land, no reload needed.
	for page := 1; page <= cfg.pages; page++ {
		body := renderListingPage(page, cfg.pages, cfg.moviesPerPage)
		target := fmt.Sprintf("%s/page%d.html", listingDocRoot, page)
		if err := container.CopyToContainer(ctx, []byte(body), target, 0o644); err != nil {
			container.Terminate(ctx) //nolint:errcheck
			return nil, fmt.Errorf("upload page %d: %w", page, err)
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultListingPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &ListingContainer{
		Container:     container,
		URL:           fmt.Sprintf("http://%s:%s", host, port.Port()),
		Pages:         cfg.pages,
		MoviesPerPage: cfg.moviesPerPage,
	}, nil
}

// StartURL returns the URL of the first listing page.
func (c *ListingContainer) StartURL() string {
	return c.PageURL(1)
}

// PageURL returns the URL of the given 1-based listing page.
func (c *ListingContainer) PageURL(page int) string {
	return fmt.Sprintf("%s/page%d.html", c.URL, page)
}

// TotalMovies returns the number of movie rows across all pages.
func (c *ListingContainer) TotalMovies() int {
	return c.Pages * c.MoviesPerPage
}

// Logs returns the container logs for debugging.
func (c *ListingContainer) Logs(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read logs: %w", err)
	}
	return string(logs), nil
}

// FixtureMovieTitle returns the title of the i-th movie (1-based,
// counted across pages), matching what renderListingPage emits. Tests
// use it to assert on extracted rows without duplicating the fixture
// layout.
func FixtureMovieTitle(i int) string {
	return fmt.Sprintf("Fixture Film %d", i)
}

// FixtureMovieYear returns the release year of the i-th movie.
func FixtureMovieYear(i int) int {
	return 1950 + i%70
}

// renderListingPage builds one listing page: a ranked table of movie
// rows plus a rel="next" link on every page but the last. The layout
// mirrors the class of pages the extractor targets: rank column, title
// with trailing "(YYYY)" and an item link, decimal rating, and a
// comma-grouped vote count.
func renderListingPage(page, totalPages, perPage int) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head><title>Top Movies - Page ")
	fmt.Fprintf(&sb, "%d", page)
	sb.WriteString("</title></head>\n<body>\n<h1>Top Rated Movies</h1>\n<table>\n")
	sb.WriteString("  <tr><th>#</th><th>Title</th><th>Rating</th><th>Votes</th></tr>\n")

	for row := 1; row <= perPage; row++ {
		i := (page-1)*perPage + row
		rating := 5.0 + float64(i%40)*0.1
		votes := 1000 + i*37
		fmt.Fprintf(&sb,
			"  <tr><td>%d</td><td><a href=\"/movies/%d\">%s (%d)</a></td><td>%.1f</td><td>%d,%03d</td></tr>\n",
			i, i, FixtureMovieTitle(i), FixtureMovieYear(i), rating, votes/1000, votes%1000)
	}

	sb.WriteString("</table>\n")
	if page < totalPages {
		fmt.Fprintf(&sb, "<div class=\"pagination\"><a href=\"/page%d.html\" rel=\"next\">Next &raquo;</a></div>\n", page+1)
	}
	sb.WriteString("</body>\n</html>\n")

	return sb.String()
}
