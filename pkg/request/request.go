// Package request assembles StaysSearch page requests.
//
// Each search variant has its own Builder carrying the variant's filter
// defaults and persisted-query hash. A Builder is bound to one query and
// produces the request for any cursor, so a pagination run only has to
// feed it the cursor returned by the previous page.
package request

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Variant identifies a search mode.
type Variant string

const (
	VariantMapBounds     Variant = "map_bounds"
	VariantStructured    Variant = "structured"
	VariantFlexibleDates Variant = "flexible_dates"
)

// Persisted-query hashes registered server side for StaysSearch.
const (
	HashMapBounds     = "d4d9503616dc72ab220ed8dcf17f166816dccb2593e7b4625c91c3fce3a3b3d6"
	HashStructured    = "385c60ba2599dad1c62355032d8bbc09d826ae11660be78b16e09eba49c5c605"
	HashFlexibleDates = "385c60ba2599dad1c62355032d8bbc09d826ae11660be78b16e09eba49c5c605"
)

const (
	// DefaultEndpoint is the API root; the operation and hash are appended.
	DefaultEndpoint = "https://www.airbnb.com/api/v3"
	DefaultLocale   = "en"

	// APIKeyHeader carries the credential from the credential provider.
	APIKeyHeader = "X-Airbnb-Api-Key"

	operationName = "StaysSearch"
	clientVersion = "1.8.3"
)

// ErrInvalidDate is returned when a check-in or check-out date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// Builder produces page requests for a single query.
type Builder interface {
	// Variant returns the search mode this builder serves.
	Variant() Variant

	// Build returns the request for the page addressed by cursor.
	// An empty cursor addresses the first page.
	Build(cursor, currency string) (Request, error)

	// CacheKey returns the storage key for the page addressed by cursor.
	CacheKey(currency, cursor string) string
}

// Request is a fully assembled page request.
type Request struct {
	Variant Variant
	URL     string
	Headers http.Header
	Payload Payload
}

// Payload is the persisted-query envelope posted to the endpoint.
type Payload struct {
	OperationName string     `json:"operationName"`
	Extensions    Extensions `json:"extensions"`
	Variables     Variables  `json:"variables"`
}

// Extensions holds the persisted-query reference.
type Extensions struct {
	PersistedQuery PersistedQuery `json:"persistedQuery"`
}

// PersistedQuery identifies a server-side stored query.
type PersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// Variables carries the search request(s) for one page.
type Variables struct {
	IncludeMapResults       bool           `json:"includeMapResults,omitempty"`
	IsLeanTreatment         bool           `json:"isLeanTreatment"`
	StaysMapSearchRequestV2 *SearchRequest `json:"staysMapSearchRequestV2,omitempty"`
	StaysSearchRequest      SearchRequest  `json:"staysSearchRequest"`
}

// SearchRequest is the inner request shared by every variant.
type SearchRequest struct {
	Cursor            string        `json:"cursor"`
	MaxMapItems       int           `json:"maxMapItems,omitempty"`
	RequestedPageType string        `json:"requestedPageType"`
	MetadataOnly      bool          `json:"metadataOnly"`
	Source            string        `json:"source"`
	SearchType        string        `json:"searchType"`
	TreatmentFlags    []string      `json:"treatmentFlags"`
	RawParams         []FilterEntry `json:"rawParams"`
}

// FilterEntry is one named filter. Values are always a list of strings,
// even for scalar filters.
type FilterEntry struct {
	FilterName   string   `json:"filterName"`
	FilterValues []string `json:"filterValues"`
}

// Filter builds a FilterEntry, never leaving values nil so the entry
// encodes as an empty list rather than null.
func Filter(name string, values ...string) FilterEntry {
	if values == nil {
		values = []string{}
	}
	return FilterEntry{FilterName: name, FilterValues: values}
}

// Find returns the values of the first filter named name.
func Find(filters []FilterEntry, name string) ([]string, bool) {
	for _, f := range filters {
		if f.FilterName == name {
			return f.FilterValues, true
		}
	}
	return nil, false
}

// Option configures a Builder.
type Option func(*config)

type config struct {
	endpoint string
	locale   string
	hash     string
}

// WithEndpoint overrides the API root (useful for tests and mirrors).
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithLocale sets the locale query parameter.
func WithLocale(locale string) Option {
	return func(c *config) {
		if locale != "" {
			c.locale = locale
		}
	}
}

// WithHash overrides the variant's persisted-query hash.
func WithHash(hash string) Option {
	return func(c *config) {
		if hash != "" {
			c.hash = hash
		}
	}
}

func newConfig(hash string, opts []Option) config {
	cfg := config{
		endpoint: DefaultEndpoint,
		locale:   DefaultLocale,
		hash:     hash,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// pageURL renders {endpoint}/StaysSearch/{hash}?operationName=...&locale=...&currency=...
func (c config) pageURL(currency string) string {
	q := url.Values{}
	q.Set("operationName", operationName)
	q.Set("locale", c.locale)
	q.Set("currency", currency)
	return c.endpoint + "/" + operationName + "/" + c.hash + "?" + q.Encode()
}

func (c config) envelope(vars Variables) Payload {
	return Payload{
		OperationName: operationName,
		Extensions: Extensions{
			PersistedQuery: PersistedQuery{Version: 1, SHA256Hash: c.hash},
		},
		Variables: vars,
	}
}

// BrowserHeaders returns the fixed header set sent with every page request.
// The credential header is added by the transport.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Accept-Language", "en")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "close")
	h.Set("Content-Type", "application/json")
	h.Set("Pragma", "no-cache")
	h.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", UserAgent)
	return h
}

// UserAgent is the desktop Chrome user agent the marketplace expects.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// joinKey builds a cache key from its segments.
func joinKey(parts ...string) string {
	return strings.Join(parts, "_")
}

// keyLocation drops spaces from location text for use in a cache key.
func keyLocation(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
