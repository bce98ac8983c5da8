package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bito/concertworker/config"
	"bito/concertworker/internal/concert"
	"bito/concertworker/logger"
	"bito/concertworker/services/cache"
	apperrors "bito/concertworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxRecords caps the number of concerts taken from one listing page
const DefaultMaxRecords = config.MaxRecordsLimit

// Scraper fetches a listing page and extracts concerts from it
type Scraper struct {
	Source        string
	URL           string
	VenueFallback string
	MaxRecords    int
	Selectors     Selectors

	// Now supplies the reference time for date normalization and samples
	Now func() time.Time

	fetcher Fetcher
	blocker *cache.Blocker
	log     *logger.Logger
}

// NewScraper creates a scraper for source at url. blocker may be nil.
func NewScraper(source, url string, fetcher Fetcher, blocker *cache.Blocker) *Scraper {
	return &Scraper{
		Source:     source,
		URL:        url,
		MaxRecords: DefaultMaxRecords,
		Selectors:  DefaultSelectors(),
		Now:        time.Now,
		fetcher:    fetcher,
		blocker:    blocker,
		log:        logger.ForScraper(source),
	}
}

// Scrape fetches the listing and returns the concerts found on it. The result
// may be empty; it never substitutes samples.
func (s *Scraper) Scrape(ctx context.Context) (Result, error) {
	result := Result{Strategy: StrategyNone}

	if s.blocker.Blocked() {
		return result, apperrors.NewRateLimit(s.Source, s.blocker.Duration())
	}

	s.log.Debug().Str("url", s.URL).Str("driver", s.fetcher.Name()).Msg("Fetching listing")
	markup, err := s.fetcher.Fetch(ctx, s.URL)
	if err != nil {
		if ctx.Err() == nil {
			if blockErr := s.blocker.Block(); blockErr != nil {
				s.log.Warn().Err(blockErr).Msg("Failed to set fetch block")
			}
		}
		return result, apperrors.NewFetch(s.Source, fmt.Sprintf("fetch %s", s.URL), err)
	}

	return s.Parse(markup, s.URL)
}

// Parse extracts concerts from already fetched markup. pageURL resolves relative links.
func (s *Scraper) Parse(markup, pageURL string) (Result, error) {
	result := Result{Strategy: StrategyNone}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return result, apperrors.NewParsing(s.Source, "parse listing markup", err)
	}

	cands := SelectCandidates(doc, s.Selectors)
	result.Strategy = cands.Strategy
	result.Candidates = cands.Len()

	x := &extraction{
		source:        s.Source,
		venueFallback: s.VenueFallback,
		pageURL:       pageURL,
		today:         concert.Day(s.now()),
		sel:           s.Selectors,
		log:           s.log,
	}
	result.Concerts = x.extractAll(cands, s.limit())

	s.log.Debug().
		Str("strategy", string(result.Strategy)).
		Int("candidates", result.Candidates).
		Int("concerts", len(result.Concerts)).
		Msg("Extracted listing")

	return result, nil
}

// Run scrapes the listing and falls back to the sample concerts when the scrape
// fails or finds nothing. The returned result always holds at least one concert;
// Err records why samples were used, if a failure caused it.
func (s *Scraper) Run(ctx context.Context) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Scrape panicked")
			result = s.fallback(result, apperrors.New(apperrors.ErrorTypeExtraction, s.Source, "scrape panicked", fmt.Errorf("%v", r)))
		}
		result.Duration = time.Since(start)
	}()

	result, err := s.Scrape(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Scrape failed, using sample concerts")
		return s.fallback(result, err)
	}
	if len(result.Concerts) == 0 {
		s.log.Warn().Int("candidates", result.Candidates).Msg("No concerts found, using sample concerts")
		return s.fallback(result, nil)
	}

	s.log.Info().Int("count", len(result.Concerts)).Str("strategy", string(result.Strategy)).Msg("Scraped concerts")
	return result
}

func (s *Scraper) fallback(result Result, err error) Result {
	result.Concerts = concert.Samples(s.now())
	result.Sampled = true
	result.Err = err
	return result
}

func (s *Scraper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Scraper) limit() int {
	if s.MaxRecords <= 0 || s.MaxRecords > DefaultMaxRecords {
		return DefaultMaxRecords
	}
	return s.MaxRecords
}
