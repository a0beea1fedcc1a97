package matcher

import (
	"sort"
	"sync"

	"github.com/km-arc/go-resolver/framework/definition"
)

// Entry is a snapshot of one cache slot.
type Entry struct {
	Definition *definition.Definition
	Matcher    Matcher
}

// Cache memoizes the combined matcher of each definition. Definitions with
// no matching matcher are not cached, so they are rescanned every time.
type Cache struct {
	mu      sync.RWMutex
	entries map[*definition.Definition]Matcher
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[*definition.Definition]Matcher)}
}

// Lookup returns the cached matcher for def.
func (c *Cache) Lookup(def *definition.Definition) (Matcher, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[def]
	return m, ok
}

// Store caches m for def. A nil matcher removes the entry.
func (c *Cache) Store(def *definition.Definition, m Matcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == nil {
		delete(c.entries, def)
		return
	}
	c.entries[def] = m
}

// Invalidate drops the entry for def.
func (c *Cache) Invalidate(def *definition.Definition) {
	c.mu.Lock()
	delete(c.entries, def)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns the cached pairs ordered by definition id.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for d, m := range c.entries {
		out = append(out, Entry{Definition: d, Matcher: m})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Definition.ID() < out[j].Definition.ID() })
	return out
}
