package worker

import (
	"context"
	"time"

	"bito/concertworker/logger"
	"bito/concertworker/services/concerts"
)

// Scraper runs one scrape and stores its result
type Scraper interface {
	ScrapeConcerts(ctx context.Context) (concerts.ScrapeResult, error)
}

// Worker handles the periodic scraping process
type Worker struct {
	scraper        Scraper
	scrapeInterval time.Duration
	log            *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(scraper Scraper, scrapeInterval time.Duration) *Worker {
	return &Worker{
		scraper:        scraper,
		scrapeInterval: scrapeInterval,
		log:            logger.ForWorker(),
	}
}

// Start scrapes immediately and then once per interval until ctx is done
func (w *Worker) Start(ctx context.Context) error {
	if w.scrapeInterval <= 0 {
		w.runOnce(ctx)
		return nil
	}

	for {
		w.runOnce(ctx)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return ctx.Err()
		case <-time.After(w.scrapeInterval):
		}
	}
}

// runOnce runs one scrape and logs its outcome
func (w *Worker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	res, err := w.scraper.ScrapeConcerts(ctx)
	elapsed := time.Since(start)

	if err != nil {
		w.log.Error().Err(err).Dur("elapsed", elapsed).Msg("Scrape run failed")
		return
	}

	event := w.log.Info()
	if res.Cause != nil {
		event = w.log.Warn().Err(res.Cause)
	}
	event.
		Int("count", len(res.Concerts)).
		Bool("sampled", res.Sampled).
		Str("strategy", string(res.Strategy)).
		Dur("elapsed", elapsed).
		Msg("Scrape run finished")

	if logger.IsDebugEnabled() && len(res.Concerts) > 0 {
		w.log.Debug().Interface("first", res.Concerts[0]).Msg("Scraped data")
	}
}
