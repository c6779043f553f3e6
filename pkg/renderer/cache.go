package renderer

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

type cacheEntry struct {
	key       string
	value     template.Rendered
	expiresAt time.Time
}

// renderCache is a thread-safe LRU cache with per-entry TTL. When the cache
// reaches its capacity, the least recently used entry is evicted; expired
// entries are dropped lazily on lookup.
type renderCache struct {
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	eviction *list.List
	mu       sync.Mutex
}

func newRenderCache(capacity int, ttl time.Duration) *renderCache {
	return &renderCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

func (c *renderCache) get(key string, now time.Time) (template.Rendered, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return template.Rendered{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if now.After(entry.expiresAt) {
		c.eviction.Remove(elem)
		delete(c.items, key)
		return template.Rendered{}, false
	}
	c.eviction.MoveToFront(elem)
	return entry.value, true
}

func (c *renderCache) put(key string, value template.Rendered, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = now.Add(c.ttl)
		return
	}

	elem := c.eviction.PushFront(&cacheEntry{key: key, value: value, expiresAt: now.Add(c.ttl)})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		oldest := c.eviction.Back()
		if oldest != nil {
			c.eviction.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *renderCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// cacheKey builds the lookup key for a render request. Variables are hashed
// through their JSON encoding, which sorts map keys and therefore yields a
// stable digest for equal variable sets.
func cacheKey(templateID string, version int, channel notification.Channel, vars map[string]any, locale, timezone string) string {
	payload, err := json.Marshal(struct {
		Vars     map[string]any `json:"vars"`
		Locale   string         `json:"locale"`
		Timezone string         `json:"timezone"`
	}{Vars: vars, Locale: locale, Timezone: timezone})
	if err != nil {
		// Unencodable variables (channels, funcs) fall back to an unstable
		// key so the request still renders, just without cache reuse.
		payload = []byte(fmt.Sprintf("%v|%s|%s", vars, locale, timezone))
	}
	digest := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%d:%s:%s", templateID, version, channel, hex.EncodeToString(digest[:16]))
}
