// Package credential supplies the short-lived API key required by the
// StaysSearch endpoint.
//
// The marketplace embeds its public web client key in the homepage, so
// every provider here except Static ends up reading that page, either with
// a plain HTTP client or with a headless browser.
package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Provider supplies an API key, optionally routing through a proxy.
type Provider interface {
	// APIKey returns a key usable for one search invocation.
	APIKey(ctx context.Context, proxy string) (string, error)

	// Name identifies the provider in logs.
	Name() string
}

var (
	// ErrKeyNotFound indicates the fetched page did not contain a key.
	ErrKeyNotFound = errors.New("api key not found in page")
	// ErrNoProvider indicates a fallback chain had nothing to try.
	ErrNoProvider = errors.New("no credential provider configured")
)

// DefaultHomepage is the page the web client key is scraped from.
const DefaultHomepage = "https://www.airbnb.com"

var apiKeyPattern = regexp.MustCompile(`"api_config"\s*:\s*\{\s*"key"\s*:\s*"([^"]+)"`)

// ExtractKey finds the web client key in a homepage document. Inline
// scripts are searched first; the raw document is the fallback for pages
// whose bootstrap data lives outside a script element.
func ExtractKey(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	var key string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := apiKeyPattern.FindStringSubmatch(s.Text()); m != nil {
			key = m[1]
			return false
		}
		return true
	})
	if key != "" {
		return key, nil
	}

	if m := apiKeyPattern.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}
	return "", ErrKeyNotFound
}

// Static returns a fixed key, e.g. one supplied through configuration.
type Static string

// APIKey returns the configured key.
func (s Static) APIKey(_ context.Context, _ string) (string, error) {
	if s == "" {
		return "", ErrKeyNotFound
	}
	return string(s), nil
}

// Name returns "static".
func (s Static) Name() string {
	return "static"
}
