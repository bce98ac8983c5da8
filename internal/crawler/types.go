package crawler

import (
	"context"
	"time"

	"bito/concertworker/internal/concert"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves the final rendered markup of a page
type Fetcher interface {
	// Fetch returns the markup of targetURL after client-side rendering settled
	Fetch(ctx context.Context, targetURL string) (string, error)

	// Name identifies the driver for logging
	Name() string
}

// Strategy names the way candidate elements were discovered
type Strategy string

const (
	// StrategyContainer selects item container elements by class
	StrategyContainer Strategy = "container"
	// StrategyLink selects anchors pointing at goods pages
	StrategyLink Strategy = "link"
	// StrategyNone means neither strategy found anything
	StrategyNone Strategy = "none"
)

// ElementHandler extracts a text value from a selection, or "" when absent
type ElementHandler func(*goquery.Selection) string

// Selectors contains CSS selectors for the listing page
type Selectors struct {
	// Candidate discovery
	Container string
	Link      string

	// Container scope
	Title       string
	GoodsAnchor string
	Artist      string
	Venue       string
	Date        string
	Price       string

	// Parent scope of a link candidate
	ScopeVenue string
	ScopeDate  string
	ScopePrice string
}

// DefaultSelectors returns the selectors for Interpark style listings.
// Substring attribute matches ignore case.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: ".goodsItem, .goods-item, .product-item, [class*='goods' i]",
		Link:      "a[href*='goodscode' i]",

		Title:       ".title, .goods-title, .name",
		GoodsAnchor: "a[href*='goods' i]",
		Artist:      ".artist, .cast",
		Venue:       ".place, .venue, .play-place",
		Date:        ".date, .period, .play-date",
		Price:       ".price",

		ScopeVenue: "[class*='place' i], [class*='venue' i]",
		ScopeDate:  "[class*='date' i], [class*='period' i]",
		ScopePrice: "[class*='price' i]",
	}
}

// ReadySelector matches as soon as any candidate is present in the page
func (s Selectors) ReadySelector() string {
	switch {
	case s.Container != "" && s.Link != "":
		return s.Container + ", " + s.Link
	case s.Container != "":
		return s.Container
	default:
		return s.Link
	}
}

// Result is the outcome of one scrape run
type Result struct {
	Concerts   []concert.Concert
	Strategy   Strategy
	Candidates int
	// Sampled is set when Concerts is the fixed sample set
	Sampled  bool
	Err      error
	Duration time.Duration
}
