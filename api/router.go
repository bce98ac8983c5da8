package api

import (
	"context"
	"net/http"

	"bito/concertworker/internal/concert"
	"bito/concertworker/services/concerts"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// ConcertService is what the API needs from the application service
type ConcertService interface {
	ScrapeConcerts(ctx context.Context) (concerts.ScrapeResult, error)
	LoadSamples(ctx context.Context) ([]concert.Concert, error)
	CheapConcerts(ctx context.Context, maxPrice int) ([]concert.Concert, error)
	AllConcerts(ctx context.Context) ([]concert.Concert, error)
}

// Options configures the router
type Options struct {
	Service ConcertService

	// CheapMaxPrice is used by /api/concerts/cheap when no max is given
	CheapMaxPrice int

	// Gatherer backs /metrics; nil leaves the route out
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP API
func NewRouter(opts Options) http.Handler {
	if opts.CheapMaxPrice <= 0 {
		opts.CheapMaxPrice = concert.CheapPriceLimit
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	RegisterRoutes(r, opts.Service, opts.CheapMaxPrice)
	return r
}
