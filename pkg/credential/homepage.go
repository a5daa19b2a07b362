package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/pkg/request"
)

// HomepageConfig holds configuration for the homepage provider.
type HomepageConfig struct {
	URL     string
	Timeout time.Duration
}

// Homepage fetches the marketplace homepage over HTTP and extracts the key.
type Homepage struct {
	config HomepageConfig
}

// NewHomepage creates a homepage provider.
func NewHomepage(cfg HomepageConfig) *Homepage {
	if cfg.URL == "" {
		cfg.URL = DefaultHomepage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Homepage{config: cfg}
}

// APIKey fetches the homepage, through proxy when set, and extracts the key.
func (h *Homepage) APIKey(ctx context.Context, proxy string) (string, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.UserAgent(request.UserAgent),
	)
	c.SetRequestTimeout(h.config.Timeout)
	if proxy != "" {
		if err := c.SetProxy(proxy); err != nil {
			return "", fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
	}

	headers := request.BrowserHeaders()
	headers.Del("Content-Type")
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			(*r.Headers)[k] = v
		}
	})

	var (
		html     string
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("homepage fetch failed (status %d): %w", status, err)
	})

	logger.DebugContext(ctx, "fetching homepage for api key", "url", h.config.URL, "proxy", proxy != "")
	if err := c.Visit(h.config.URL); err != nil {
		if fetchErr != nil {
			return "", fetchErr
		}
		return "", fmt.Errorf("failed to visit homepage: %w", err)
	}
	if fetchErr != nil {
		return "", fetchErr
	}

	key, err := ExtractKey(html)
	if err != nil {
		return "", fmt.Errorf("%s: %w", h.config.URL, err)
	}
	logger.DebugContext(ctx, "api key extracted from homepage", logger.Size("page_size", len(html)))
	return key, nil
}

// Name returns "homepage".
func (h *Homepage) Name() string {
	return "homepage"
}
