package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/okonma/pressgate/internal/metrics"
)

// Fingerprint returns the content-addressed cache key for input: the hex
// SHA-256 digest of the whitespace-trimmed input. Fingerprint equality is
// treated as input equality; SHA-256 collision resistance stands in for
// byte comparison, an accepted approximation rather than exact equality.
func Fingerprint(input string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(input)))
	return hex.EncodeToString(sum[:])
}

// ContentCache is a capacity-bounded LRU cache with per-entry TTL keyed by
// content fingerprint. Eviction order is strict least-recently-used; expired
// entries are removed lazily when read, or by capacity pressure if they have
// aged to the back of the list.
type ContentCache struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	ll        *list.List // front = most recently used
	items     map[string]*list.Element
	size      int64
	hits      uint64
	misses    uint64
	evictions uint64
	nowFn     func() time.Time
}

type entry struct {
	fingerprint string
	artifact    []byte
	createdAt   time.Time
}

// NewContent creates a ContentCache holding at most capacity entries, each
// living for ttl after insertion.
func NewContent(capacity int, ttl time.Duration) *ContentCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ContentCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		nowFn:    time.Now,
	}
}

// Get retrieves the artifact for input and bumps its recency. An expired
// entry is evicted and reported as a miss.
func (c *ContentCache) Get(input string) ([]byte, bool) {
	fp := Fingerprint(input)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fp]
	if !ok {
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	ent := elem.Value.(*entry)
	if c.nowFn().Sub(ent.createdAt) >= c.ttl {
		c.removeElement(elem)
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	c.ll.MoveToFront(elem)
	c.hits++
	metrics.CacheHits.Inc()
	return ent.artifact, true
}

// Put stores artifact under the fingerprint of input. At capacity, the
// least-recently-used entry is evicted first; an existing entry for the same
// fingerprint is overwritten in place.
func (c *ContentCache) Put(input string, artifact []byte) {
	fp := Fingerprint(input)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()

	if elem, ok := c.items[fp]; ok {
		ent := elem.Value.(*entry)
		c.size += int64(len(artifact)) - int64(len(ent.artifact))
		ent.artifact = artifact
		ent.createdAt = now
		c.ll.MoveToFront(elem)
		c.updateGauges()
		return
	}

	if c.ll.Len() >= c.capacity {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest)
			c.evictions++
			metrics.CacheEvictions.Inc()
		}
	}

	elem := c.ll.PushFront(&entry{
		fingerprint: fp,
		artifact:    artifact,
		createdAt:   now,
	})
	c.items[fp] = elem
	c.size += int64(len(artifact))
	c.updateGauges()
}

// Clear removes all entries; immediately observable by subsequent Gets.
func (c *ContentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.size = 0
	c.updateGauges()
}

// Stats returns a snapshot of cache statistics.
func (c *ContentCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   c.ll.Len(),
		Capacity:  c.capacity,
		SizeBytes: c.size,
		TTL:       c.ttl,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// removeElement drops an entry; callers hold c.mu.
func (c *ContentCache) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.ll.Remove(elem)
	delete(c.items, ent.fingerprint)
	c.size -= int64(len(ent.artifact))
	c.updateGauges()
}

// updateGauges mirrors entry count and size to Prometheus; callers hold c.mu.
func (c *ContentCache) updateGauges() {
	metrics.CacheItems.Set(float64(c.ll.Len()))
	metrics.CacheSizeBytes.Set(float64(c.size))
}
