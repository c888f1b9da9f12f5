// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/tomtom215/lodestone/internal/models"
)

// titleYearSuffix matches the trailing parenthesized year of listing
// titles, e.g. "Heat (1995)". Matches the MovieLens title convention.
var titleYearSuffix = regexp.MustCompile(`\((\d{4})\)\s*$`)

// Plausible release-year range for a bare numeric year column.
const (
	minPlausibleYear = 1870
	maxPlausibleYear = 2100
)

// tableCell is the text content and first link of one <td>.
type tableCell struct {
	text string
	href string
}

// ParseMovieList extracts movie rows from the table markup of a
// listing page. It returns the extracted rows and a count of rows that
// were skipped as malformed (table rows with cells but no recognizable
// title). Header rows using <th> are ignored without counting.
//
// The extractor is layout-tolerant: it takes the first cell containing
// letters as the title, reads a trailing "(YYYY)" as the year, and
// scans the remaining cells for a decimal rating and an integer vote
// count. A bare four digit number in the plausible release-year range
// fills the year when the title carried none. Relative item links are
// resolved against baseURL.
func ParseMovieList(doc, baseURL string) ([]models.ScrapedMovie, int, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	base := parseBaseURL(baseURL)

	var movies []models.ScrapedMovie
	skipped := 0

	walkElements(root, "tr", func(row *html.Node) {
		cells := collectCells(row)
		if len(cells) == 0 {
			return
		}

		movie, ok := extractMovie(cells, base)
		if !ok {
			skipped++
			return
		}
		movies = append(movies, movie)
	})

	return movies, skipped, nil
}

// FindNextLink returns the pagination target of the page, resolved
// against baseURL, or "" when the page has no next link. Links are
// recognized by rel="next", by a class containing "next", or by anchor
// text starting with "next".
func FindNextLink(doc, baseURL string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	base := parseBaseURL(baseURL)

	// rel="next" is authoritative when present, so anchors are ranked
	// rather than taken first-wins.
	var relNext, classNext, textNext string

	walkElements(root, "a", func(a *html.Node) {
		href := attrValue(a, "href")
		if href == "" {
			return
		}
		if strings.EqualFold(attrValue(a, "rel"), "next") && relNext == "" {
			relNext = href
			return
		}
		if strings.Contains(strings.ToLower(attrValue(a, "class")), "next") && classNext == "" {
			classNext = href
			return
		}
		text := strings.ToLower(collapseSpace(textContent(a)))
		if strings.HasPrefix(text, "next") && textNext == "" {
			textNext = href
		}
	})

	href := relNext
	if href == "" {
		href = classNext
	}
	if href == "" {
		href = textNext
	}
	if href == "" {
		return "", nil
	}
	return resolveURL(base, href), nil
}

// extractMovie maps one row's cells to a ScrapedMovie. The title is
// required; year, rating, and votes are best-effort.
func extractMovie(cells []tableCell, base *url.URL) (models.ScrapedMovie, bool) {
	titleIdx := -1
	for i, c := range cells {
		if containsLetter(c.text) {
			titleIdx = i
			break
		}
	}
	if titleIdx < 0 {
		return models.ScrapedMovie{}, false
	}

	movie := models.ScrapedMovie{Title: cells[titleIdx].text}
	if match := titleYearSuffix.FindStringSubmatch(movie.Title); match != nil {
		if year, err := strconv.Atoi(match[1]); err == nil {
			movie.Year = year
			movie.Title = strings.TrimSpace(titleYearSuffix.ReplaceAllString(movie.Title, ""))
		}
	}
	if cells[titleIdx].href != "" {
		movie.URL = resolveURL(base, cells[titleIdx].href)
	}

	for _, c := range cells[titleIdx+1:] {
		clean := strings.ReplaceAll(strings.TrimSpace(c.text), ",", "")
		if clean == "" {
			continue
		}
		switch {
		case strings.Contains(clean, "."):
			if v, err := strconv.ParseFloat(clean, 64); err == nil && movie.Rating == 0 {
				movie.Rating = v
			}
		case allDigits(clean):
			v, err := strconv.ParseInt(clean, 10, 64)
			if err != nil {
				continue
			}
			if movie.Year == 0 && len(clean) == 4 && v >= minPlausibleYear && v <= maxPlausibleYear {
				movie.Year = int(v)
			} else if movie.Votes == 0 {
				movie.Votes = v
			}
		}
	}

	return movie, true
}

// collectCells gathers the <td> children of a row in document order.
// Rows made of <th> cells produce nothing, which drops table headers.
func collectCells(row *html.Node) []tableCell {
	var cells []tableCell
	walkElements(row, "td", func(td *html.Node) {
		cell := tableCell{text: collapseSpace(textContent(td))}
		walkElements(td, "a", func(a *html.Node) {
			if cell.href == "" {
				cell.href = attrValue(a, "href")
			}
		})
		cells = append(cells, cell)
	})
	return cells
}

// walkElements calls fn for every element named tag in the subtree
// rooted at n, in document order.
func walkElements(n *html.Node, tag string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == tag {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, tag, fn)
	}
}

// textContent concatenates all text nodes in the subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseSpace trims the string and folds internal whitespace runs
// into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseBaseURL(baseURL string) *url.URL {
	if baseURL == "" {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	return base
}

// resolveURL resolves href against base, returning href unchanged when
// no base is available or href does not parse.
func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
