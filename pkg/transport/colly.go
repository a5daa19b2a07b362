package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/pkg/request"
)

// CollyConfig holds configuration for the colly transport.
type CollyConfig struct {
	// Timeout bounds a single request. Zero keeps colly's default.
	Timeout time.Duration
	// MaxBodySize caps the response body in bytes. Zero keeps colly's default.
	MaxBodySize int
}

// Colly posts page requests with a fresh colly collector per call.
// It implements the Transport interface.
type Colly struct {
	config CollyConfig
}

// NewColly creates a colly-backed transport.
func NewColly(cfg CollyConfig) *Colly {
	return &Colly{config: cfg}
}

// Do posts req with the browser headers plus the session credential.
func (t *Colly) Do(ctx context.Context, req request.Request, sess Session) ([]byte, error) {
	if sess.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	c, err := t.collector(ctx, sess.Proxy)
	if err != nil {
		return nil, err
	}

	headers := req.Headers.Clone()
	if headers == nil {
		headers = request.BrowserHeaders()
	}
	headers.Set(request.APIKeyHeader, sess.APIKey)

	log := logger.FromContext(ctx)

	var (
		respBody []byte
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		respBody = r.Body
		log.Debug("page response received",
			"variant", req.Variant,
			"status", r.StatusCode,
			logger.Size("size", len(r.Body)))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusNonAuthoritativeInfo {
			fetchErr = &StatusError{StatusCode: r.StatusCode, Body: r.Body}
		} else {
			fetchErr = fmt.Errorf("post failed: %w", err)
		}
		log.Debug("page request error", "variant", req.Variant, "error", err)
	})

	log.Debug("posting page request",
		"variant", req.Variant,
		"url", req.URL,
		logger.Size("payload_size", len(body)),
		"proxy", sess.Proxy != "")

	if err := c.Request(http.MethodPost, req.URL, bytes.NewReader(body), nil, headers); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("failed to post page request: %w", err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w (%d bytes)", ErrInvalidJSON, len(respBody))
	}
	return respBody, nil
}

func (t *Colly) collector(ctx context.Context, proxy string) (*colly.Collector, error) {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.UserAgent(request.UserAgent),
	}
	if t.config.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(t.config.MaxBodySize))
	}
	c := colly.NewCollector(opts...)

	if t.config.Timeout > 0 {
		c.SetRequestTimeout(t.config.Timeout)
	}
	if proxy != "" {
		if err := c.SetProxy(proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
	}
	return c, nil
}
