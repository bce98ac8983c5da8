package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bito/concertworker/logger"
)

// browserlessScript renders the page in the remote browser and returns its markup
const browserlessScript = `module.exports = async ({ page, context }) => {
	await page.setViewport({ width: context.width, height: context.height });
	if (context.userAgent) {
		await page.setUserAgent(context.userAgent);
	}
	await page.goto(context.url, { waitUntil: 'domcontentloaded', timeout: context.navigationTimeout });
	if (context.readySelector) {
		try {
			await page.waitForSelector(context.readySelector, { timeout: context.settleTimeout });
		} catch (e) {}
	} else if (context.settleTimeout > 0) {
		await new Promise((resolve) => setTimeout(resolve, context.settleTimeout));
	}
	return { data: await page.content(), type: 'text/html' };
}`

// BrowserlessFetcher renders pages through the /function endpoint of a browserless service
type BrowserlessFetcher struct {
	addr   string
	opts   PlaywrightOptions
	client *http.Client
	log    *logger.Logger
}

// NewBrowserlessFetcher creates a fetcher talking to the browserless service at addr
func NewBrowserlessFetcher(addr string, opts PlaywrightOptions) *BrowserlessFetcher {
	timeout := opts.NavigationTimeout + opts.SettleTimeout + 10*time.Second
	return &BrowserlessFetcher{
		addr:   strings.TrimRight(addr, "/"),
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		log:    logger.ForComponent("browserless"),
	}
}

// Name returns the driver name
func (f *BrowserlessFetcher) Name() string { return "browserless" }

func (f *BrowserlessFetcher) payload(targetURL string) map[string]interface{} {
	return map[string]interface{}{
		"code": browserlessScript,
		"context": map[string]interface{}{
			"url":               targetURL,
			"userAgent":         f.opts.UserAgent,
			"width":             f.opts.ViewportWidth,
			"height":            f.opts.ViewportHeight,
			"navigationTimeout": f.opts.NavigationTimeout.Milliseconds(),
			"settleTimeout":     f.opts.SettleTimeout.Milliseconds(),
			"readySelector":     f.opts.ReadySelector,
		},
	}
}

// Fetch posts the render script for targetURL and returns the rendered markup
func (f *BrowserlessFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	data, err := json.Marshal(f.payload(targetURL))
	if err != nil {
		return "", fmt.Errorf("marshal browserless payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.addr+"/function", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create browserless request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	f.log.Debug().Str("url", targetURL).Str("addr", f.addr).Msg("Rendering page with browserless")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("browserless request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read browserless response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("browserless status code %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	content := unwrapContent(body)
	if !looksLikeHTML(content) {
		return "", fmt.Errorf("browserless returned no HTML document (%d bytes)", len(content))
	}
	return content, nil
}

// unwrapContent extracts the markup from a browserless response, which is either
// the raw document or a JSON object carrying it in a well-known field
func unwrapContent(body []byte) string {
	content := string(body)
	if !strings.HasPrefix(strings.TrimSpace(content), "{") {
		return content
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return content
	}

	for _, key := range []string{"data", "content", "result", "html"} {
		switch v := result[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if inner, ok := v["content"].(string); ok && inner != "" {
				return inner
			}
		}
	}
	return content
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
