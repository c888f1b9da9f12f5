// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package cache provides the in-memory caching and deduplication
structures the workbench shares across its surfaces.

Two families live here:

  - Cache: a thread-safe TTL key-value cache used by the API handlers
    to serve repeated analytic queries (dataset statistics, run
    listings) without hitting DuckDB on every request.

  - BloomLRU / ExactLRU: deduplication caches used by the event
    pipeline to drop redelivered rating events whose IDs were already
    landed. BloomLRU short-circuits most unique IDs at a Bloom filter
    and verifies suspected duplicates against an exact LRU, so a
    unique event is never falsely dropped; ExactLRU skips the filter
    entirely for callers that prefer simplicity over the fast path.

# TTL cache

	c := cache.New(5 * time.Minute)
	c.Set("datasets:stats", stats)
	if v, ok := c.Get("datasets:stats"); ok {
	    return v.(*models.DatasetStats)
	}

Keys for parameterized queries should go through GenerateKey, which
hashes the parameter struct so equivalent requests share an entry:

	key := cache.GenerateKey("analyses:list", listParams)

# Deduplication

	dedup := cache.NewBloomLRU(10000, 5*time.Minute, 0.01)
	if dedup.Contains(event.EventID) {
	    return nil // already landed
	}
	// ... insert ...
	dedup.Record(event.EventID)

All types are safe for concurrent use. Everything here is stdlib plus
goccy/go-json for key hashing; expiry is lazy on read with periodic
sweeps.
*/
package cache
