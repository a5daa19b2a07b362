// Package server exposes the search client over HTTP.
//
// Each request runs one complete, sequential pagination and answers with
// the accumulated records. There is no job queue: a slow search holds its
// connection until the server runs out of pages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/internal/version"
	"github.com/jmylchreest/staysearch/pkg/request"
	"github.com/jmylchreest/staysearch/pkg/stays"
	"github.com/jmylchreest/staysearch/pkg/transport"
)

// Searcher is the subset of *stays.Client the server needs.
type Searcher interface {
	SearchAll(ctx context.Context, q request.BoundsQuery, currency, proxy string) ([]stays.Record, error)
	SearchFirstPage(ctx context.Context, q request.BoundsQuery, currency, proxy string) ([]stays.Record, error)
	SearchStructured(ctx context.Context, q request.StructuredQuery, currency, proxy string) ([]stays.Record, error)
	SearchFlexibleDates(ctx context.Context, q request.FlexibleQuery, currency, proxy string, opts stays.FlexibleOptions) ([]stays.Record, error)
}

// Defaults fill request fields the caller leaves empty.
type Defaults struct {
	Currency string
	Proxy    string
}

// Server routes search requests to a Searcher.
type Server struct {
	searcher Searcher
	defaults Defaults
}

// New creates a Server.
func New(s Searcher, d Defaults) *Server {
	return &Server{searcher: s, defaults: d}
}

type boundsBody struct {
	Query     request.BoundsQuery `json:"query"`
	Currency  string              `json:"currency"`
	Proxy     string              `json:"proxy"`
	FirstPage bool                `json:"first_page"`
}

type structuredBody struct {
	Query    request.StructuredQuery `json:"query"`
	Currency string                  `json:"currency"`
	Proxy    string                  `json:"proxy"`
}

type flexibleBody struct {
	Query       request.FlexibleQuery `json:"query"`
	Currency    string                `json:"currency"`
	Proxy       string                `json:"proxy"`
	Standardize bool                  `json:"standardize"`
	UseCache    *bool                 `json:"use_cache"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []stays.Record `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	// Registered on the root router so a method mismatch answers 405.
	r.HandleFunc("/v1/search/bounds", s.handleBounds).Methods(http.MethodPost)
	r.HandleFunc("/v1/search/query", s.handleStructured).Methods(http.MethodPost)
	r.HandleFunc("/v1/search/flexible", s.handleFlexible).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Get())
	}).Methods(http.MethodGet)

	return r
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	var body boundsBody
	if !decode(w, r, &body) {
		return
	}
	currency, proxy := s.fill(body.Currency, body.Proxy)

	search := s.searcher.SearchAll
	if body.FirstPage {
		search = s.searcher.SearchFirstPage
	}
	records, err := search(r.Context(), body.Query, currency, proxy)
	respond(w, records, err)
}

func (s *Server) handleStructured(w http.ResponseWriter, r *http.Request) {
	var body structuredBody
	if !decode(w, r, &body) {
		return
	}
	currency, proxy := s.fill(body.Currency, body.Proxy)

	records, err := s.searcher.SearchStructured(r.Context(), body.Query, currency, proxy)
	respond(w, records, err)
}

func (s *Server) handleFlexible(w http.ResponseWriter, r *http.Request) {
	var body flexibleBody
	if !decode(w, r, &body) {
		return
	}
	currency, proxy := s.fill(body.Currency, body.Proxy)

	opts := stays.DefaultFlexibleOptions()
	opts.Standardize = body.Standardize
	if body.UseCache != nil {
		opts.UseCache = *body.UseCache
	}
	records, err := s.searcher.SearchFlexibleDates(r.Context(), body.Query, currency, proxy, opts)
	respond(w, records, err)
}

func (s *Server) fill(currency, proxy string) (string, string) {
	if currency == "" {
		currency = s.defaults.Currency
	}
	if proxy == "" {
		proxy = s.defaults.Proxy
	}
	return currency, proxy
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, records []stays.Record, err error) {
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Count: len(records), Results: records})
}

// statusFor maps search errors to HTTP statuses. Upstream failures are
// reported as 502 so clients can tell them apart from their own mistakes.
func statusFor(err error) int {
	var se *transport.StatusError
	switch {
	case errors.Is(err, stays.ErrInvalidQuery), errors.Is(err, request.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, stays.ErrCredential), errors.As(err, &se), errors.Is(err, transport.ErrInvalidJSON):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
