// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package cache

import (
	"sync"
	"time"
)

// LRUEntry is a node in the LRU cache's recency list. The stored
// value is the time the key was first recorded, which is all the
// deduplication callers need.
type LRUEntry struct {
	key       string
	value     time.Time
	prev      *LRUEntry
	next      *LRUEntry
	expiresAt time.Time
}

// LRUCache is a thread-safe least-recently-used cache with TTL
// expiry. A doubly-linked recency list over a map keeps Get, Add,
// and capacity eviction all O(1); expiry is lazy on access with an
// explicit CleanupExpired sweep for callers that want to reclaim
// memory between accesses.
//
// It backs the deduplication caches in this package; the event
// consumer sizes it to its deduplication window.
type LRUCache struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration

	// items maps keys to list nodes for O(1) lookup.
	items map[string]*LRUEntry

	// head.next is the most recently used entry, tail.prev the least.
	head *LRUEntry
	tail *LRUEntry

	hits   int64
	misses int64
}

// NewLRUCache creates an LRU cache holding at most capacity entries,
// each expiring ttl after it was last added. Non-positive arguments
// fall back to 10000 entries and five minutes.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*LRUEntry, capacity),
		head:     &LRUEntry{},
		tail:     &LRUEntry{},
	}

	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get returns the recorded timestamp for key and refreshes its
// recency. Expired entries are removed and reported as misses.
func (c *LRUCache) Get(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		if time.Now().After(entry.expiresAt) {
			c.removeEntry(entry)
			c.misses++
			return time.Time{}, false
		}

		c.moveToFront(entry)
		c.hits++
		return entry.value, true
	}

	c.misses++
	return time.Time{}, false
}

// Contains reports whether key is present and unexpired without
// touching its recency.
func (c *LRUCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, exists := c.items[key]; exists {
		return !time.Now().After(entry.expiresAt)
	}
	return false
}

// Add records key with the given timestamp, refreshing the TTL and
// recency if it already exists. When the cache is full the least
// recently used entry is evicted.
func (c *LRUCache) Add(key string, value time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiresAt := now.Add(c.ttl)

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &LRUEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}

	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Remove deletes key, reporting whether it was present.
func (c *LRUCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		c.removeEntry(entry)
		return true
	}
	return false
}

// IsDuplicate reports whether key was seen within the TTL window,
// recording it as seen when it was not. Check and record happen under
// one lock, so of two concurrent calls with the same new key exactly
// one reports false.
func (c *LRUCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if entry, exists := c.items[key]; exists {
		if !now.After(entry.expiresAt) {
			c.moveToFront(entry)
			c.hits++
			return true
		}
		// Expired entries do not count as seen.
		c.removeEntry(entry)
	}

	entry := &LRUEntry{
		key:       key,
		value:     now,
		expiresAt: now.Add(c.ttl),
	}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}

	c.misses++
	return false
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops every entry.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*LRUEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes every expired entry and returns how many
// were dropped.
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.removeEntry(entry)
			removed++
		}
		entry = prev
	}

	return removed
}

// Stats returns the hit/miss counters and current size.
func (c *LRUCache) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// List surgery below requires the write lock.

func (c *LRUCache) addToFront(entry *LRUEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRUCache) moveToFront(entry *LRUEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRUCache) removeEntry(entry *LRUEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *LRUCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
