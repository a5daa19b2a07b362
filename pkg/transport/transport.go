// Package transport posts StaysSearch page requests.
//
// A Transport performs exactly one HTTP call per Do. It never retries and
// does not classify failures as transient or permanent; callers see the
// underlying error wrapped with context.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/staysearch/pkg/request"
)

// Transport executes a single page request.
type Transport interface {
	// Do posts req and returns the raw response body, which is guaranteed
	// to be a JSON document.
	Do(ctx context.Context, req request.Request, sess Session) ([]byte, error)
}

// Session carries per-search call parameters.
type Session struct {
	// APIKey is sent in the credential header. Required.
	APIKey string
	// Proxy is an optional forward proxy URL used for both http and https.
	Proxy string
}

// ErrInvalidJSON is returned when the response body is not a JSON document.
var ErrInvalidJSON = errors.New("response is not valid JSON")

// ErrMissingAPIKey is returned when a Session has no credential.
var ErrMissingAPIKey = errors.New("missing API key")

// StatusError reports a non-success HTTP status.
// Use errors.As to inspect the status code.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}
