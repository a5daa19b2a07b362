package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
)

// DefaultMemoryTTL bounds how long the in-process tier holds a page.
const DefaultMemoryTTL = time.Hour

// Tiered keeps recently used pages in process memory in front of another
// store. Reads fall through to the backing store and populate memory;
// writes go to both.
type Tiered struct {
	local *ccache.Cache[[]byte]
	next  Store
	ttl   time.Duration
}

// NewTiered wraps next with an in-memory tier holding up to maxItems pages.
func NewTiered(next Store, maxItems int64, ttl time.Duration) *Tiered {
	if maxItems <= 0 {
		maxItems = 100
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &Tiered{
		local: ccache.New(ccache.Configure[[]byte]().MaxSize(maxItems)),
		next:  next,
		ttl:   ttl,
	}
}

// Get returns the page from memory or the backing store.
func (t *Tiered) Get(key string) ([]byte, bool, error) {
	if item := t.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true, nil
	}

	data, ok, err := t.next.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	t.local.Set(key, data, t.ttl)
	return data, true, nil
}

// Put writes through to the backing store, then memory.
func (t *Tiered) Put(key string, data []byte) error {
	if err := t.next.Put(key, data); err != nil {
		return err
	}
	t.local.Set(key, data, t.ttl)
	return nil
}

// Name returns "memory+<backing>".
func (t *Tiered) Name() string {
	return "memory+" + t.next.Name()
}

// Close stops the in-memory tier's background worker.
func (t *Tiered) Close() error {
	t.local.Stop()
	return nil
}
