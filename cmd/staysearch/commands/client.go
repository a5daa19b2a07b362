package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/pkg/cache"
	"github.com/jmylchreest/staysearch/pkg/credential"
	"github.com/jmylchreest/staysearch/pkg/stays"
	"github.com/jmylchreest/staysearch/pkg/transport"
)

// newClient assembles a search client from configuration. The returned
// cleanup releases cache resources.
func newClient() (*stays.Client, func(), error) {
	creds, err := newCredentials()
	if err != nil {
		return nil, nil, err
	}

	maxBody, err := parseSize(viper.GetString("max_body_size"))
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := newCache()
	if err != nil {
		return nil, nil, err
	}

	var hashes stays.Hashes
	if err := viper.UnmarshalKey("hashes", &hashes); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("invalid hashes config: %w", err)
	}

	client, err := stays.New(stays.Config{
		Credentials: creds,
		Transport: transport.NewColly(transport.CollyConfig{
			Timeout:     viper.GetDuration("timeout"),
			MaxBodySize: maxBody,
		}),
		Cache:    store,
		Endpoint: viper.GetString("endpoint"),
		Locale:   viper.GetString("locale"),
		Hashes:   hashes,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

// newCredentials picks the API key provider. "auto" tries a configured key,
// then the homepage, then a headless browser.
func newCredentials() (credential.Provider, error) {
	apiKey := viper.GetString("api_key")
	timeout := viper.GetDuration("timeout")

	homepage := credential.NewHomepage(credential.HomepageConfig{Timeout: timeout})
	browser := credential.NewBrowser(credential.BrowserConfig{
		ExecPath: viper.GetString("chrome_path"),
	})

	source := strings.ToLower(viper.GetString("key_source"))
	logger.Debug("credential source", "source", source, "static_key", apiKey != "")

	switch source {
	case "static":
		if apiKey == "" {
			return nil, fmt.Errorf("key source static requires --api-key or STAYSEARCH_API_KEY")
		}
		return credential.Static(apiKey), nil
	case "homepage":
		return homepage, nil
	case "browser":
		return browser, nil
	case "auto", "":
		var chain []credential.Provider
		if apiKey != "" {
			chain = append(chain, credential.Static(apiKey))
		}
		chain = append(chain, homepage, browser)
		return credential.NewFallback(chain...), nil
	default:
		return nil, fmt.Errorf("unknown key source: %s (use static, homepage, browser or auto)", source)
	}
}

// cacheEnabled reports whether page caching is on. Configuring a cache
// directory turns it on unless cache.enabled says otherwise.
func cacheEnabled() bool {
	if viper.IsSet("cache.enabled") {
		return viper.GetBool("cache.enabled")
	}
	return viper.GetString("cache.dir") != ""
}

// cacheDir returns the configured disk cache directory, defaulting to the
// user cache directory.
func cacheDir() (string, error) {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("no cache directory configured: %w", err)
	}
	return filepath.Join(base, "staysearch"), nil
}

func newCache() (cache.Store, func(), error) {
	noop := func() {}
	if !cacheEnabled() {
		return nil, noop, nil
	}

	var store cache.Store
	switch backend := viper.GetString("cache.backend"); backend {
	case "disk", "":
		dir, err := cacheDir()
		if err != nil {
			return nil, nil, err
		}
		disk, err := cache.NewDisk(dir)
		if err != nil {
			return nil, nil, err
		}
		store = disk
		logger.Debug("disk cache", "dir", dir)
	case "memcache":
		addrs := strings.Split(viper.GetString("cache.memcache_addr"), ",")
		mc, err := cache.NewMemcache(addrs...)
		if err != nil {
			return nil, nil, err
		}
		store = mc
		logger.Debug("memcached cache", "servers", addrs)
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %s (use disk or memcache)", backend)
	}

	if n := viper.GetInt64("cache.memory_items"); n > 0 {
		tiered := cache.NewTiered(store, n, cache.DefaultMemoryTTL)
		return tiered, func() { _ = tiered.Close() }, nil
	}
	return store, noop, nil
}

// parseSize parses a human byte size; "" and "0" mean unset.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max-body-size %q: %w", s, err)
	}
	return int(n), nil
}
