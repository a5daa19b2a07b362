// Package stays searches marketplace listings page by page.
//
// A Client pairs a credential provider, a transport and an optional cache,
// and exposes one entry point per search mode. Every entry point runs a
// single sequential pagination: one credential lookup, then one request per
// page until the server stops handing out cursors.
package stays

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/pkg/cache"
	"github.com/jmylchreest/staysearch/pkg/credential"
	"github.com/jmylchreest/staysearch/pkg/normalize"
	"github.com/jmylchreest/staysearch/pkg/request"
	"github.com/jmylchreest/staysearch/pkg/transport"
)

var (
	// ErrCredential wraps failures of the credential provider.
	ErrCredential = errors.New("credential acquisition failed")

	// ErrInvalidQuery wraps validation failures of a query or currency.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrCache wraps cache read and write failures.
	ErrCache = errors.New("cache failure")
)

// Config holds the collaborators and request settings of a Client.
type Config struct {
	// Credentials supplies the API key once per search. Required.
	Credentials credential.Provider

	// Transport posts page requests. Defaults to a colly transport.
	Transport transport.Transport

	// Cache persists raw page responses. Nil disables caching.
	Cache cache.Store

	// Normalizer standardizes records. Defaults to normalize.Standard.
	Normalizer normalize.Normalizer

	// Endpoint and Locale override the request defaults when set.
	Endpoint string
	Locale   string

	// Hashes override the persisted-query hash per variant.
	Hashes Hashes
}

// Hashes holds persisted-query hash overrides. Empty fields keep the
// built-in hash.
type Hashes struct {
	Bounds     string `mapstructure:"bounds"`
	Structured string `mapstructure:"structured"`
	Flexible   string `mapstructure:"flexible"`
}

// SearchOptions tunes one search call.
type SearchOptions struct {
	// Standardize passes each page through the normalizer.
	Standardize bool

	// UseCache reads cached pages when a cache is configured. Fetched pages
	// are written to the cache either way.
	UseCache bool

	// MaxPages stops after that many pages. Zero means no limit.
	MaxPages int
}

// FlexibleOptions tunes SearchFlexibleDates.
type FlexibleOptions struct {
	Standardize bool
	UseCache    bool
}

// DefaultFlexibleOptions returns raw results with cache reads enabled.
func DefaultFlexibleOptions() FlexibleOptions {
	return FlexibleOptions{Standardize: false, UseCache: true}
}

// Client runs searches.
type Client struct {
	creds      credential.Provider
	transport  transport.Transport
	cache      cache.Store
	normalizer normalize.Normalizer
	validate   *validator.Validate

	endpoint string
	locale   string
	hashes   Hashes
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, credential.ErrNoProvider
	}
	if cfg.Transport == nil {
		cfg.Transport = transport.NewColly(transport.CollyConfig{})
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = normalize.Standard{}
	}
	return &Client{
		creds:      cfg.Credentials,
		transport:  cfg.Transport,
		cache:      cfg.Cache,
		normalizer: cfg.Normalizer,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		endpoint:   cfg.Endpoint,
		locale:     cfg.Locale,
		hashes:     cfg.Hashes,
	}, nil
}

// SearchAll pages through a bounding-box search and returns every
// standardized record.
func (c *Client) SearchAll(ctx context.Context, q request.BoundsQuery, currency, proxy string) ([]Record, error) {
	b, err := c.Bounds(q)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, b, currency, proxy, SearchOptions{Standardize: true, UseCache: true})
}

// SearchFirstPage fetches only the first page of a bounding-box search,
// standardized.
func (c *Client) SearchFirstPage(ctx context.Context, q request.BoundsQuery, currency, proxy string) ([]Record, error) {
	b, err := c.Bounds(q)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, b, currency, proxy, SearchOptions{Standardize: true, UseCache: true, MaxPages: 1})
}

// SearchStructured pages through a text/location search and returns every
// standardized record.
func (c *Client) SearchStructured(ctx context.Context, q request.StructuredQuery, currency, proxy string) ([]Record, error) {
	b, err := c.Structured(q)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, b, currency, proxy, SearchOptions{Standardize: true, UseCache: true})
}

// SearchFlexibleDates pages through a flexible-date search.
func (c *Client) SearchFlexibleDates(ctx context.Context, q request.FlexibleQuery, currency, proxy string, opts FlexibleOptions) ([]Record, error) {
	b, err := c.Flexible(q)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, b, currency, proxy, SearchOptions{Standardize: opts.Standardize, UseCache: opts.UseCache})
}

// Bounds validates q and returns its builder.
func (c *Client) Bounds(q request.BoundsQuery) (request.Builder, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return request.NewBounds(q, c.builderOptions(c.hashes.Bounds)...), nil
}

// Structured validates q and returns its builder.
func (c *Client) Structured(q request.StructuredQuery) (request.Builder, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return request.NewStructured(q, c.builderOptions(c.hashes.Structured)...), nil
}

// Flexible validates q and returns its builder.
func (c *Client) Flexible(q request.FlexibleQuery) (request.Builder, error) {
	if err := c.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return request.NewFlexible(q, c.builderOptions(c.hashes.Flexible)...), nil
}

func (c *Client) builderOptions(hash string) []request.Option {
	var opts []request.Option
	if c.endpoint != "" {
		opts = append(opts, request.WithEndpoint(c.endpoint))
	}
	if c.locale != "" {
		opts = append(opts, request.WithLocale(c.locale))
	}
	if hash != "" {
		opts = append(opts, request.WithHash(hash))
	}
	return opts
}

// Search runs one pagination for b. It is the shared driver behind the
// per-mode entry points.
func (c *Client) Search(ctx context.Context, b request.Builder, currency, proxy string, opts SearchOptions) ([]Record, error) {
	if err := c.validate.Var(currency, "required,len=3,alpha"); err != nil {
		return nil, fmt.Errorf("%w: currency %q", ErrInvalidQuery, currency)
	}

	log := logger.With("run", uuid.NewString(), "variant", b.Variant())
	ctx = logger.NewContext(ctx, log)
	start := time.Now()

	apiKey, err := c.creds.APIKey(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCredential, c.creds.Name(), err)
	}
	sess := transport.Session{APIKey: apiKey, Proxy: proxy}

	p := &Paginator{
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			return c.fetchPage(ctx, b, sess, currency, cursor, opts.UseCache)
		},
		MaxPages: opts.MaxPages,
	}
	if opts.Standardize {
		p.Transform = c.normalizer.Standardize
	}

	res, err := p.Run(ctx)
	if err != nil {
		log.Error("search failed", "error", err)
		return nil, err
	}

	log.Info("search complete",
		"records", len(res.Records),
		"pages", res.Pages,
		"stop", res.Stop,
		"duration", time.Since(start).Round(time.Millisecond))
	return res.Records, nil
}

// fetchPage returns the page for cursor from the cache or the network.
// Network responses are cached verbatim before they are decoded.
func (c *Client) fetchPage(ctx context.Context, b request.Builder, sess transport.Session, currency, cursor string, readCache bool) (Page, error) {
	log := logger.FromContext(ctx)
	key := b.CacheKey(currency, cursor)

	if c.cache != nil && readCache {
		raw, ok, err := c.cache.Get(key)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %w", ErrCache, err)
		}
		if ok {
			log.Info("cache hit", "key", key, "backend", c.cache.Name(), logger.Size("size", len(raw)))
			page, err := ParsePage(raw)
			if err != nil {
				return Page{}, fmt.Errorf("%w: %s: %w", ErrCache, key, err)
			}
			return page, nil
		}
	}

	req, err := b.Build(cursor, currency)
	if err != nil {
		return Page{}, err
	}

	log.Info("requesting page", "key", key)
	raw, err := c.transport.Do(ctx, req, sess)
	if err != nil {
		return Page{}, err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, raw); err != nil {
			return Page{}, fmt.Errorf("%w: %w", ErrCache, err)
		}
		log.Debug("page cached", "key", key, "backend", c.cache.Name(), logger.Size("size", len(raw)))
	}

	return ParsePage(raw)
}
