package crawler

import (
	"strings"

	"bito/concertworker/config"
	"bito/concertworker/services/cache"
)

// NewFetcher creates the fetcher selected by cfg.FetchDriver
func NewFetcher(cfg *config.Config, sel Selectors) Fetcher {
	opts := PlaywrightOptions{
		ExecutablePath:    cfg.BrowserPath,
		Install:           cfg.InstallDriver,
		UserAgent:         cfg.UserAgent,
		ViewportWidth:     cfg.ViewportWidth,
		ViewportHeight:    cfg.ViewportHeight,
		NavigationTimeout: cfg.NavigationTimeout,
		SettleTimeout:     cfg.SettleTimeout,
		ReadySelector:     sel.ReadySelector(),
	}

	switch cfg.FetchDriver {
	case config.DriverBrowserless:
		return NewBrowserlessFetcher(cfg.BrowserlessAddr, opts)
	case config.DriverHTTP:
		return &HTTPFetcher{UserAgent: cfg.UserAgent}
	default:
		return NewPlaywrightFetcher(opts)
	}
}

// BlockKey is the cache key holding the fetch block for source
func BlockKey(source string) string {
	return strings.ToLower(strings.ReplaceAll(source, " ", "_")) + "_blocked"
}

// CreateScraper builds the scraper described by cfg. cacheSvc may be nil,
// which disables the fetch block.
func CreateScraper(cfg *config.Config, cacheSvc cache.CacheService) *Scraper {
	sel := DefaultSelectors()

	var blocker *cache.Blocker
	if cacheSvc != nil {
		blocker = cache.NewBlocker(cacheSvc, BlockKey(cfg.SourceName), cfg.BlockTime)
	}

	s := NewScraper(cfg.SourceName, cfg.TargetURL, NewFetcher(cfg, sel), blocker)
	s.VenueFallback = cfg.VenueFallback
	s.MaxRecords = cfg.MaxRecords
	s.Selectors = sel
	return s
}
