// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package authz

import (
	"strings"
	"sync"
	"time"
)

// decisionCache memoizes enforcement results per (subject, object,
// action) tuple. Entries expire after the TTL; role and policy
// mutations invalidate eagerly so a revocation never waits out the
// clock.
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]decision
	stopChan chan struct{}
	stopOnce sync.Once
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		items:    make(map[string]decision),
		stopChan: make(chan struct{}),
	}
	go c.janitor()
	return c
}

func cacheKey(subject, object, action string) string {
	return subject + "\x00" + object + "\x00" + action
}

func (c *decisionCache) get(subject, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.items[cacheKey(subject, object, action)]
	if !ok || time.Now().After(d.expiresAt) {
		return false, false
	}
	return d.allowed, true
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey(subject, object, action)] = decision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// invalidateSubject drops every cached decision for one subject.
func (c *decisionCache) invalidateSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := subject + "\x00"
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]decision)
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// janitor sweeps expired entries once per TTL.
func (c *decisionCache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, d := range c.items {
				if now.After(d.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *decisionCache) stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}
