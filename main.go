package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bito/concertworker/api"
	"bito/concertworker/config"
	"bito/concertworker/internal/crawler"
	"bito/concertworker/logger"
	"bito/concertworker/services/cache"
	"bito/concertworker/services/concerts"
	"bito/concertworker/services/metrics"
	"bito/concertworker/services/publisher"
	"bito/concertworker/services/storage"
	"bito/concertworker/services/worker"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "concertworker",
		Short:         "Scrape concert listings and serve them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "scrape",
			Short: "Scrape the listing once, store and print the result",
			RunE:  runScrape,
		},
		&cobra.Command{
			Use:   "sample",
			Short: "Store and print the sample concerts",
			RunE:  runSample,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API and scrape periodically",
			RunE:  runServe,
		},
	)
	return cmd
}

// setup loads the environment, logger and validated configuration
func setup() (*config.Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Services holds all the initialized services
type Services struct {
	Store     storage.Store
	Publisher *publisher.RedisPublisher
	Registry  *prometheus.Registry
	Concerts  *concerts.Service
}

// Cleanup closes every connection held by the services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.ForComponent("main").Warn().Err(err).Msg("Failed to close publisher")
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			logger.ForComponent("main").Warn().Err(err).Msg("Failed to close store")
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	log := logger.ForComponent("main")
	services := &Services{Registry: prometheus.NewRegistry()}

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	services.Store = store
	log.Info().Str("driver", cfg.StorageDriver).Msg("Storage ready")

	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, "concertworker:")
		if err := mc.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache is not reachable, fetch block disabled")
		} else {
			cacheSvc = mc
			log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
		}
	}

	opts := []concerts.Option{concerts.WithMetrics(metrics.New(services.Registry))}
	if cfg.RedisAddr != "" {
		pub := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := pub.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable, publishing disabled")
			_ = pub.Close()
		} else {
			services.Publisher = pub
			opts = append(opts, concerts.WithPublisher(pub))
			log.Info().
				Str("addr", cfg.RedisAddr).
				Int("db", cfg.RedisDB).
				Str("stream", cfg.RedisStream).
				Msg("Connected to Redis")
		}
	}

	scraper := crawler.CreateScraper(cfg, cacheSvc)
	services.Concerts = concerts.NewService(scraper, store, cfg.SourceName, opts...)

	log.Info().
		Str("source", cfg.SourceName).
		Str("url", cfg.TargetURL).
		Str("fetch_driver", cfg.FetchDriver).
		Msg("Scraper ready")

	return services, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	res, err := services.Concerts.ScrapeConcerts(ctx)
	if err != nil {
		return err
	}
	if res.Cause != nil {
		logger.ForComponent("main").Warn().Err(res.Cause).Msg("Scrape failed, stored sample concerts")
	}

	return printJSON(api.ScrapeResponse{
		Message:  "크롤링 완료",
		Count:    len(res.Concerts),
		Concerts: res.Concerts,
		Sampled:  res.Sampled,
	})
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	list, err := services.Concerts.LoadSamples(ctx)
	if err != nil {
		return err
	}

	return printJSON(api.ScrapeResponse{
		Message:  "샘플 데이터 로드 완료",
		Count:    len(list),
		Concerts: list,
		Sampled:  true,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	log := logger.ForComponent("main")

	ctx, cancel := signalContext()
	defer cancel()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Options{
			Service:       services.Concerts,
			CheapMaxPrice: cfg.CheapMaxPrice,
			Gatherer:      services.Registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		serverDone <- server.ListenAndServe()
	}()

	if cfg.ScrapeInterval > 0 {
		w := worker.NewWorker(services.Concerts, cfg.ScrapeInterval)
		go func() {
			log.Info().Dur("interval", cfg.ScrapeInterval).Msg("Starting scrape worker")
			_ = w.Start(ctx)
		}()
	}

	log.Info().
		Str("environment", cfg.Environment).
		Msg("Started concert worker")

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
