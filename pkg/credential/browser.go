package credential

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/pkg/request"
)

// BrowserConfig holds configuration for the headless browser provider.
type BrowserConfig struct {
	URL      string
	Timeout  time.Duration
	ExecPath string // Chrome binary; searched for when empty
}

// Browser renders the homepage in headless Chrome and extracts the key
// from the resulting DOM. Slower than Homepage, but it gets past pages
// that only serve their bootstrap data to a real browser.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a headless browser provider.
func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.URL == "" {
		cfg.URL = DefaultHomepage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Browser{config: cfg}
}

// APIKey launches a browser, through proxy when set, and extracts the key.
func (b *Browser) APIKey(ctx context.Context, proxy string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(request.UserAgent),
	)
	execPath := b.config.ExecPath
	if execPath == "" {
		execPath = FindChromePath()
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	if proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.FromContext(ctx).Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancelTimeout()

	logger.DebugContext(ctx, "rendering homepage for api key", "url", b.config.URL, "proxy", proxy != "")

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(b.config.URL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch failed: %w", err)
	}

	key, err := ExtractKey(html)
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.config.URL, err)
	}
	return key, nil
}

// Name returns "browser".
func (b *Browser) Name() string {
	return "browser"
}

var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath returns the first Chrome/Chromium binary found on the
// system, or "" to let chromedp use its own lookup.
func FindChromePath() string {
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "path", path)
			return path
		}
	}
	return ""
}
