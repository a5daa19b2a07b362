package credential

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const homepageFixture = `<!doctype html>
<html><head><title>Vacation rentals</title>
<script id="data-deferred-state" type="application/json">{"niobeMinimalClientData":[]}</script>
<script>window.__bootstrap = {"layout-init":{"api_config":{"key":"d306zoyjsyarp7ifhu67rjxn52tv0t20","baseUrl":"/api"}}};</script>
</head><body><div id="root"></div></body></html>`

// --- ExtractKey Tests ---

func TestExtractKey_FromScript(t *testing.T) {
	key, err := ExtractKey(homepageFixture)
	if err != nil {
		t.Fatalf("ExtractKey() error = %v", err)
	}
	if key != "d306zoyjsyarp7ifhu67rjxn52tv0t20" {
		t.Errorf("unexpected key %q", key)
	}
}

func TestExtractKey_OutsideScript(t *testing.T) {
	html := `<html><body data-state='{"api_config": {"key": "abc123"}}'></body></html>`

	key, err := ExtractKey(html)
	if err != nil {
		t.Fatalf("ExtractKey() error = %v", err)
	}
	if key != "abc123" {
		t.Errorf("unexpected key %q", key)
	}
}

func TestExtractKey_Missing(t *testing.T) {
	_, err := ExtractKey(`<html><script>var x = 1;</script></html>`)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

// --- Static Tests ---

func TestStatic(t *testing.T) {
	key, err := Static("k1").APIKey(context.Background(), "")
	if err != nil || key != "k1" {
		t.Errorf("Static.APIKey() = %q, %v", key, err)
	}

	if _, err := Static("").APIKey(context.Background(), ""); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("empty Static should fail with ErrKeyNotFound, got %v", err)
	}
}

// --- Homepage Tests ---

func TestHomepage_APIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Chrome") {
			t.Errorf("expected browser user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, homepageFixture)
	}))
	defer srv.Close()

	p := NewHomepage(HomepageConfig{URL: srv.URL, Timeout: 5 * time.Second})
	key, err := p.APIKey(context.Background(), "")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "d306zoyjsyarp7ifhu67rjxn52tv0t20" {
		t.Errorf("unexpected key %q", key)
	}
}

func TestHomepage_NoKeyInPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body>blocked</body></html>")
	}))
	defer srv.Close()

	p := NewHomepage(HomepageConfig{URL: srv.URL, Timeout: 5 * time.Second})
	_, err := p.APIKey(context.Background(), "")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestHomepage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHomepage(HomepageConfig{URL: srv.URL, Timeout: 5 * time.Second})
	_, err := p.APIKey(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for 503 homepage")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestHomepage_Defaults(t *testing.T) {
	p := NewHomepage(HomepageConfig{})
	if p.config.URL != DefaultHomepage {
		t.Errorf("expected default URL, got %q", p.config.URL)
	}
	if p.config.Timeout == 0 {
		t.Error("expected default timeout")
	}
	if p.Name() != "homepage" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

// --- Fallback Tests ---

type stubProvider struct {
	name  string
	key   string
	err   error
	calls int
}

func (s *stubProvider) APIKey(context.Context, string) (string, error) {
	s.calls++
	return s.key, s.err
}

func (s *stubProvider) Name() string { return s.name }

func TestFallback_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "a", err: ErrKeyNotFound}
	second := &stubProvider{name: "b", key: "kb"}
	third := &stubProvider{name: "c", key: "kc"}

	key, err := NewFallback(first, second, third).APIKey(context.Background(), "")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "kb" {
		t.Errorf("expected key from second provider, got %q", key)
	}
	if third.calls != 0 {
		t.Error("providers after a success should not be called")
	}
}

func TestFallback_AllFail(t *testing.T) {
	boom := errors.New("boom")
	f := NewFallback(&stubProvider{name: "a", err: ErrKeyNotFound}, &stubProvider{name: "b", err: boom})

	_, err := f.APIKey(context.Background(), "")
	if !errors.Is(err, boom) {
		t.Errorf("expected last error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "a, b") {
		t.Errorf("expected tried providers in message, got %v", err)
	}
}

func TestFallback_Empty(t *testing.T) {
	_, err := NewFallback().APIKey(context.Background(), "")
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
}

func TestFallback_Name(t *testing.T) {
	f := NewFallback(Static("x"), NewHomepage(HomepageConfig{}))
	if f.Name() != "static→homepage" {
		t.Errorf("unexpected name %q", f.Name())
	}
}
