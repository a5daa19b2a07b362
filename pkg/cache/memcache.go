package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	memcacheKeyPrefix = "staysearch:"
	memcacheMaxKeyLen = 250
)

// Memcache stores pages in memcached, for sharing a cache between hosts.
// Items never expire; memcached's own LRU is the only eviction.
type Memcache struct {
	client *memcache.Client
}

// NewMemcache creates a store backed by the given memcached servers.
func NewMemcache(servers ...string) (*Memcache, error) {
	if len(servers) == 0 {
		return nil, errors.New("no memcached servers configured")
	}
	return &Memcache{client: memcache.New(servers...)}, nil
}

// Get fetches the item for key.
func (m *Memcache) Get(key string) ([]byte, bool, error) {
	item, err := m.client.Get(memcacheKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcached get: %w", err)
	}
	return item.Value, true, nil
}

// Put stores data under key without expiry.
func (m *Memcache) Put(key string, data []byte) error {
	if err := m.client.Set(&memcache.Item{Key: memcacheKey(key), Value: data}); err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Name returns "memcache".
func (m *Memcache) Name() string {
	return "memcache"
}

// memcacheKey maps a key onto memcached's key rules: at most 250 bytes, no
// whitespace or control characters. Keys that break the rules are hashed.
func memcacheKey(key string) string {
	k := memcacheKeyPrefix + key
	if len(k) <= memcacheMaxKeyLen && strings.IndexFunc(k, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0 {
		return k
	}
	sum := sha256.Sum256([]byte(key))
	return memcacheKeyPrefix + hex.EncodeToString(sum[:])
}
