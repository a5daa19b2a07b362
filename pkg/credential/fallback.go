package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmylchreest/staysearch/internal/logger"
)

// Fallback tries each provider in order until one returns a key.
// Useful for preferring a configured key and scraping only when it is absent.
type Fallback struct {
	providers []Provider
}

// NewFallback creates a fallback chain from the given providers.
func NewFallback(providers ...Provider) *Fallback {
	return &Fallback{providers: providers}
}

// APIKey returns the first key any provider yields.
func (f *Fallback) APIKey(ctx context.Context, proxy string) (string, error) {
	if len(f.providers) == 0 {
		return "", ErrNoProvider
	}

	var lastErr error
	var tried []string
	for _, p := range f.providers {
		tried = append(tried, p.Name())
		key, err := p.APIKey(ctx, proxy)
		if err == nil {
			return key, nil
		}
		logger.DebugContext(ctx, "credential provider failed", "provider", p.Name(), "error", err)
		lastErr = err
	}

	return "", fmt.Errorf("all credential providers failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

// Name returns the chain, e.g. "static→homepage".
func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, "→")
}
