// Package memo memoizes derived results keyed by table content and call
// parameters. Entries expire after a TTL and a Reset starts a new session.
package memo

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the freshness window for cached results.
const DefaultTTL = time.Hour

type entry struct {
	val     any
	expires time.Time
}

// Cache is safe for concurrent use. Recomputing an evicted or expired entry
// is always correct; the cache only saves work.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	session string
	entries map[string]entry
	hits    int
	misses  int
	now     func() time.Time
}

// New returns an empty cache. A non-positive ttl means DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		session: uuid.NewString(),
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key hashes the parts into a single cache key. Callers pass the table
// fingerprint(s) first and the parameters after. The cache scopes every key
// to its current session.
func Key(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Session identifies the current cache generation.
func (c *Cache) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// scoped prefixes key with the session. Callers hold c.mu.
func (c *Cache) scoped(key string) string {
	return c.session + "\x1f" + key
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns a live entry.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.scoped(key)
	e, ok := c.entries[k]
	if !ok || !c.now().Before(e.expires) {
		if ok {
			delete(c.entries, k)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return e.val, true
}

// Put stores v under key for one TTL.
func (c *Cache) Put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.scoped(key)] = entry{val: v, expires: c.now().Add(c.ttl)}
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.scoped(key))
}

// Reset drops every entry and starts a new session.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.session = uuid.NewString()
	c.hits, c.misses = 0, 0
}

// Stats reports live entries, hits and misses since the last Reset.
type Stats struct {
	Session string `json:"session"`
	Entries int    `json:"entries"`
	Hits    int    `json:"hits"`
	Misses  int    `json:"misses"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Session: c.session, Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Do returns the cached value for key or computes and stores it. A nil
// cache always computes.
func Do[T any](c *Cache, key string, compute func() T) T {
	if c == nil {
		return compute()
	}
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	v := compute()
	c.Put(key, v)
	return v
}
