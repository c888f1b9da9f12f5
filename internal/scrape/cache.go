// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/metrics"
)

// Cache key prefix for namespacing in BadgerDB.
const pageCacheKeyPrefix = "page:"

// PageCache stores fetched pages in BadgerDB with a TTL so repeated
// scrapes of the same listing within the TTL window are served locally.
// Entries expire automatically; badger reclaims the space during GC.
type PageCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewPageCache opens (or creates) a BadgerDB cache in the given
// directory. Entries live for ttl; a non-positive ttl stores entries
// without expiry.
func NewPageCache(dir string, ttl time.Duration) (*PageCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Suppress BadgerDB internal logs
	// Use value log file size appropriate for page-sized entries
	opts.ValueLogFileSize = 16 << 20 // 16MB (smaller than default 1GB)
	// Cached pages are reconstructible from the network, so async
	// writes are acceptable here.
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for page cache: %w", err)
	}

	return &PageCache{db: db, ttl: ttl}, nil
}

// NewPageCacheFromDB creates a page cache from an existing BadgerDB
// connection. This is useful for tests with an in-memory database.
func NewPageCacheFromDB(db *badger.DB, ttl time.Duration) *PageCache {
	return &PageCache{db: db, ttl: ttl}
}

// Get returns the cached page for the URL, or (nil, nil) on a miss.
// Returned pages carry FromCache set.
func (c *PageCache) Get(url string) (*Page, error) {
	if url == "" {
		return nil, errors.New("cache key cannot be empty")
	}

	var page Page
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pageCacheKeyPrefix + url))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &page)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheMisses.WithLabelValues("page").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read page cache: %w", err)
	}

	metrics.CacheHits.WithLabelValues("page").Inc()
	page.FromCache = true
	return &page, nil
}

// Put stores the page under its URL with the cache TTL.
func (c *PageCache) Put(page *Page) error {
	if page == nil {
		return errors.New("page cannot be nil")
	}
	if page.URL == "" {
		return errors.New("page URL cannot be empty")
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(pageCacheKeyPrefix+page.URL), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// StartGC runs BadgerDB value log garbage collection at the given
// interval until the context is canceled. Expired entries are dropped
// by badger itself; GC reclaims the disk space they held.
func (c *PageCache) StartGC(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				//nolint:errcheck // GC errors are non-fatal
				c.db.RunValueLogGC(0.5)
			}
		}
	}()
}

// Close closes the underlying BadgerDB.
func (c *PageCache) Close() error {
	return c.db.Close()
}
