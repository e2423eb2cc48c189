// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package tiles

import (
	"sync"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
)

// Key identifies a cached tile.
type Key struct {
	Metric  canvas.Metric
	Address geo.TileAddress
}

type cacheEntry struct {
	key       Key
	version   uint64
	data      []byte
	expiresAt time.Time
	prev      *cacheEntry
	next      *cacheEntry
}

// Cache is an LRU of encoded tiles with a TTL. Entries are stamped with the
// layer version they were rendered from and only returned for that version.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[Key]*cacheEntry
	head     *cacheEntry // sentinel; head.next is most recent
	tail     *cacheEntry // sentinel; tail.prev is least recent
	now      func() time.Time

	hits   int64
	misses int64
}

// NewCache returns a cache holding up to capacity tiles for at most ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 4096
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Cache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[Key]*cacheEntry, capacity),
		head:     &cacheEntry{},
		tail:     &cacheEntry{},
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the tile stored under key if it was rendered from version and
// has not expired.
func (c *Cache) Get(key Key, version uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.version != version || c.now().After(e.expiresAt) {
		c.unlink(e)
		c.misses++
		return nil, false
	}
	c.unlinkKeep(e)
	c.pushFront(e)
	c.hits++
	return e.data, true
}

// Add stores data under key. Older versions of the same tile are replaced.
func (c *Cache) Add(key Key, version uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		if version < e.version {
			return
		}
		e.version, e.data, e.expiresAt = version, data, expiresAt
		c.unlinkKeep(e)
		c.pushFront(e)
		return
	}

	e := &cacheEntry{key: key, version: version, data: data, expiresAt: expiresAt}
	c.pushFront(e)
	c.items[key] = e
	for len(c.items) > c.capacity {
		c.unlink(c.tail.prev)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[Key]*cacheEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) pushFront(e *cacheEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

// unlinkKeep detaches e from the list without forgetting it.
func (c *Cache) unlinkKeep(e *cacheEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *Cache) unlink(e *cacheEntry) {
	if e == c.head || e == c.tail {
		return
	}
	c.unlinkKeep(e)
	delete(c.items, e.key)
}
