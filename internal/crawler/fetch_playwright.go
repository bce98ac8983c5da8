package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bito/concertworker/logger"

	pw "github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures the headless Chromium fetcher
type PlaywrightOptions struct {
	ExecutablePath    string
	Install           bool
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	SettleTimeout     time.Duration
	// ReadySelector ends the settle wait early once it matches; empty waits the full settle timeout
	ReadySelector string
}

// PlaywrightFetcher renders pages in a fresh headless Chromium session per fetch
type PlaywrightFetcher struct {
	opts        PlaywrightOptions
	installOnce sync.Once
	installErr  error
	log         *logger.Logger
}

// NewPlaywrightFetcher creates a fetcher launching Chromium through playwright
func NewPlaywrightFetcher(opts PlaywrightOptions) *PlaywrightFetcher {
	return &PlaywrightFetcher{
		opts: opts,
		log:  logger.ForComponent("playwright"),
	}
}

// Name returns the driver name
func (f *PlaywrightFetcher) Name() string { return "playwright" }

func (f *PlaywrightFetcher) launchOptions() pw.BrowserTypeLaunchOptions {
	opts := pw.BrowserTypeLaunchOptions{
		Headless:        pw.Bool(true),
		ChromiumSandbox: pw.Bool(false),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	}
	if f.opts.ExecutablePath != "" {
		opts.ExecutablePath = pw.String(f.opts.ExecutablePath)
	}
	if f.opts.NavigationTimeout > 0 {
		opts.Timeout = pw.Float(float64(f.opts.NavigationTimeout.Milliseconds()))
	}
	return opts
}

func (f *PlaywrightFetcher) contextOptions() pw.BrowserNewContextOptions {
	opts := pw.BrowserNewContextOptions{
		Locale: pw.String("ko-KR"),
	}
	if f.opts.UserAgent != "" {
		opts.UserAgent = pw.String(f.opts.UserAgent)
	}
	if f.opts.ViewportWidth > 0 && f.opts.ViewportHeight > 0 {
		opts.Viewport = &pw.Size{Width: f.opts.ViewportWidth, Height: f.opts.ViewportHeight}
	}
	return opts
}

func (f *PlaywrightFetcher) install() error {
	if !f.opts.Install {
		return nil
	}
	f.installOnce.Do(func() {
		f.log.Info().Msg("Installing playwright driver and chromium")
		f.installErr = pw.Install(&pw.RunOptions{Browsers: []string{"chromium"}})
	})
	return f.installErr
}

// Fetch navigates to targetURL, waits for the listing to render and returns the page markup.
// Every browser resource is released before Fetch returns, on success or failure.
func (f *PlaywrightFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := f.install(); err != nil {
		return "", fmt.Errorf("install playwright: %w", err)
	}

	instance, err := pw.Run()
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer func() {
		if err := instance.Stop(); err != nil {
			f.log.Debug().Err(err).Msg("Failed to stop playwright")
		}
	}()

	browser, err := instance.Chromium.Launch(f.launchOptions())
	if err != nil {
		return "", fmt.Errorf("launch chromium: %w", err)
	}
	defer browser.Close()

	// Cancellation closes the browser, which unblocks any pending page call
	stop := context.AfterFunc(ctx, func() { _ = browser.Close() })
	defer stop()

	bctx, err := browser.NewContext(f.contextOptions())
	if err != nil {
		return "", fmt.Errorf("create browser context: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	gotoOpts := pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateDomcontentloaded}
	if f.opts.NavigationTimeout > 0 {
		gotoOpts.Timeout = pw.Float(float64(f.opts.NavigationTimeout.Milliseconds()))
	}
	if _, err := page.Goto(targetURL, gotoOpts); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("navigate to %s: %w", targetURL, err)
	}

	f.settle(page)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return content, nil
}

// settle waits until the ready selector is attached or the settle timeout elapses.
// Reaching the timeout is not an error, the page is read as it is.
func (f *PlaywrightFetcher) settle(page pw.Page) {
	if f.opts.SettleTimeout <= 0 {
		return
	}
	timeout := float64(f.opts.SettleTimeout.Milliseconds())

	if f.opts.ReadySelector == "" {
		page.WaitForTimeout(timeout)
		return
	}

	err := page.Locator(f.opts.ReadySelector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateAttached,
		Timeout: pw.Float(timeout),
	})
	switch {
	case err == nil:
	case errors.Is(err, pw.ErrTimeout):
		f.log.Debug().Dur("timeout", f.opts.SettleTimeout).Msg("Listing did not appear before settle timeout")
	default:
		f.log.Debug().Err(err).Msg("Settle wait failed")
	}
}
