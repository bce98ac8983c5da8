package concerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"bito/concertworker/internal/concert"
	"bito/concertworker/internal/crawler"
	"bito/concertworker/logger"
	apperrors "bito/concertworker/pkg/errors"
	"bito/concertworker/services/metrics"
	"bito/concertworker/services/publisher"
	"bito/concertworker/services/storage"
)

// ErrScrapeInProgress is returned when a scrape is requested while another one runs
var ErrScrapeInProgress = errors.New("scrape already in progress")

// Runner produces the concerts of one scrape run
type Runner interface {
	Run(ctx context.Context) crawler.Result
}

// Service ties the scraper to storage, the stream publisher and metrics
type Service struct {
	runner    Runner
	store     storage.Store
	publisher publisher.Publisher
	metrics   *metrics.Metrics
	source    string
	now       func() time.Time

	// mu allows one scrape at a time per process
	mu  sync.Mutex
	log *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPublisher publishes stored concerts to p
func WithPublisher(p publisher.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records runs in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the clock used for the sample set
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service storing the results of runner for source in store
func NewService(runner Runner, store storage.Store, source string, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		store:  store,
		source: source,
		now:    time.Now,
		log:    logger.ForComponent("concerts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeResult reports what a scrape stored
type ScrapeResult struct {
	Concerts []concert.Concert
	Sampled  bool
	Strategy crawler.Strategy
	// Cause is the scrape failure that led to the sample set, if any
	Cause error
}

// ScrapeConcerts runs the scraper and replaces the stored concerts with its result.
// Scrape failures never surface here; storage failures do. It returns
// ErrScrapeInProgress when another scrape holds the service.
func (s *Service) ScrapeConcerts(ctx context.Context) (ScrapeResult, error) {
	if !s.mu.TryLock() {
		return ScrapeResult{}, ErrScrapeInProgress
	}
	defer s.mu.Unlock()

	result := s.runner.Run(ctx)

	outcome := metrics.OutcomeScraped
	switch {
	case result.Sampled && result.Err != nil:
		outcome = metrics.OutcomeFailed
	case result.Sampled:
		outcome = metrics.OutcomeEmpty
	}

	if err := s.store.ReplaceAll(ctx, result.Concerts); err != nil {
		return ScrapeResult{}, apperrors.NewStorage(s.source, "replace concerts", err)
	}

	s.metrics.ObserveRun(s.source, outcome, string(result.Strategy), result.Candidates, len(result.Concerts), result.Duration)
	s.publish(ctx, result.Concerts)

	s.log.Info().
		Str("outcome", outcome).
		Int("count", len(result.Concerts)).
		Dur("duration", result.Duration).
		Msg("Stored concerts")

	return ScrapeResult{
		Concerts: result.Concerts,
		Sampled:  result.Sampled,
		Strategy: result.Strategy,
		Cause:    result.Err,
	}, nil
}

// LoadSamples replaces the stored concerts with the sample set
func (s *Service) LoadSamples(ctx context.Context) ([]concert.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	samples := concert.Samples(s.now())
	if err := s.store.ReplaceAll(ctx, samples); err != nil {
		return nil, apperrors.NewStorage(concert.SampleSource, "replace concerts", err)
	}

	s.metrics.ObserveRun(s.source, metrics.OutcomeSample, "", 0, len(samples), time.Since(start))
	s.publish(ctx, samples)

	s.log.Info().Int("count", len(samples)).Msg("Stored sample concerts")
	return samples, nil
}

// CheapConcerts returns the stored concerts priced at most maxPrice, cheapest first
func (s *Service) CheapConcerts(ctx context.Context, maxPrice int) ([]concert.Concert, error) {
	return s.store.Cheap(ctx, maxPrice)
}

// AllConcerts returns every stored concert, earliest first
func (s *Service) AllConcerts(ctx context.Context) ([]concert.Concert, error) {
	return s.store.All(ctx)
}

func (s *Service) publish(ctx context.Context, concerts []concert.Concert) {
	if s.publisher == nil {
		return
	}
	if err := publisher.PublishConcerts(ctx, s.publisher, concerts); err != nil {
		s.metrics.PublishFailed()
		s.log.Error().Err(apperrors.NewPublisher(s.source, "publish concerts", err)).Msg("Failed to publish concerts")
	}
}
