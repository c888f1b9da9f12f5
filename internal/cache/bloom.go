// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

// DeduplicationCache is the contract the event consumer programs
// against when dropping redelivered rating events. Both
// implementations key on the event UUID.
//
// BloomLRU trades a Bloom-filter fast path for slightly more state;
// ExactLRU is the plain exact-match variant. Neither ever reports a
// unique key as a duplicate: BloomLRU verifies every suspected
// duplicate against its exact LRU before answering.
type DeduplicationCache interface {
	// IsDuplicate checks if a key has been seen before and, when it
	// has not, records it for future checks.
	IsDuplicate(key string) bool

	// Contains checks if a key exists without modifying the cache.
	Contains(key string) bool

	// Record marks a key as seen without checking for duplicates.
	Record(key string)

	// CleanupExpired removes expired entries, returning how many.
	CleanupExpired() int

	// Clear removes all entries.
	Clear()

	// Len returns the current number of tracked keys.
	Len() int

	// Stats returns (bloomNegatives, lruChecks, duplicates, lruSize).
	Stats() (bloomNegatives, lruChecks, duplicates int64, lruSize int)
}

var (
	_ DeduplicationCache = (*BloomLRU)(nil)
	_ DeduplicationCache = (*ExactLRU)(nil)
)

// BloomFilter is a fixed-size probabilistic membership set. Test
// never returns false for an added key; it may return true for a key
// that was never added, at the configured false positive rate. Items
// cannot be removed, so it suits append-only seen-ID tracking where
// an exact structure handles expiry.
type BloomFilter struct {
	mu       sync.RWMutex
	bits     []uint64
	size     uint64 // number of bits
	hashFns  int
	count    int
	capacity int
}

// NewBloomFilter sizes a filter for expectedItems at the target
// falsePositiveRate. Out-of-range arguments fall back to 10000 items
// at 1%.
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	// Standard sizing: m = -n*ln(p)/ln(2)^2 bits, k = (m/n)*ln(2)
	// hash functions.
	ln2 := 0.693147
	ln2Squared := ln2 * ln2

	lnP := approximateLn(falsePositiveRate)

	m := int(-float64(expectedItems) * lnP / ln2Squared)
	if m < 64 {
		m = 64
	}

	k := int(float64(m) / float64(expectedItems) * ln2)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	// Round the bit array up to whole words.
	words := (m + 63) / 64

	return &BloomFilter{
		bits:     make([]uint64, words),
		size:     uint64(words * 64),
		hashFns:  k,
		capacity: expectedItems,
	}
}

// Add inserts key into the filter.
func (bf *BloomFilter) Add(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	hashes := bf.getHashes(key)
	for _, h := range hashes {
		idx := h % bf.size
		bf.bits[idx/64] |= 1 << (idx % 64)
	}
	bf.count++
}

// Test reports whether key might be in the filter. False means
// definitely absent; true needs verification against an exact store.
func (bf *BloomFilter) Test(key string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	hashes := bf.getHashes(key)
	for _, h := range hashes {
		idx := h % bf.size
		if bf.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// AddAndTest inserts key and reports whether it was possibly already
// present, in one lock acquisition.
func (bf *BloomFilter) AddAndTest(key string) bool {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	hashes := bf.getHashes(key)

	allSet := true
	for _, h := range hashes {
		idx := h % bf.size
		if bf.bits[idx/64]&(1<<(idx%64)) == 0 {
			allSet = false
			break
		}
	}

	for _, h := range hashes {
		idx := h % bf.size
		bf.bits[idx/64] |= 1 << (idx % 64)
	}
	bf.count++

	return allSet
}

// Clear resets the filter to empty.
func (bf *BloomFilter) Clear() {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

// Count returns the number of Add calls, duplicates included.
func (bf *BloomFilter) Count() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.count
}

// Capacity returns the expected item count the filter was sized for.
func (bf *BloomFilter) Capacity() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.capacity
}

// ApproximateFillRatio returns the fraction of set bits. A filter
// past its capacity drifts above the configured false positive rate.
func (bf *BloomFilter) ApproximateFillRatio() float64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	setBits := 0
	for _, word := range bf.bits {
		setBits += popcount(word)
	}
	return float64(setBits) / float64(bf.size)
}

// getHashes derives the k hash values by double hashing two FNV
// variants: h(i) = h1 + i*h2.
func (bf *BloomFilter) getHashes(key string) []uint64 {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	hash1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write([]byte(key))
	h2.Write([]byte{0xff}) // salt so the variants differ on short keys
	hash2 := h2.Sum64()

	hashes := make([]uint64, bf.hashFns)
	for i := 0; i < bf.hashFns; i++ {
		hashes[i] = hash1 + uint64(i)*hash2
	}
	return hashes
}

// popcount counts set bits (Kernighan's loop; words here are sparse).
func popcount(x uint64) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}

// approximateLn maps the handful of false positive rates callers
// actually pass to their natural logs; sizing does not need more
// precision than this table.
func approximateLn(x float64) float64 {
	switch {
	case x >= 0.1:
		return -2.303 // ln(0.1)
	case x >= 0.05:
		return -2.996 // ln(0.05)
	case x >= 0.01:
		return -4.605 // ln(0.01)
	case x >= 0.005:
		return -5.298 // ln(0.005)
	case x >= 0.001:
		return -6.908 // ln(0.001)
	default:
		return -9.210 // ln(0.0001)
	}
}

// BloomLRU pairs a Bloom filter with an exact LRU. Unique keys (the
// overwhelming case for event IDs) short-circuit at the filter; only
// suspected duplicates pay the LRU check, and the LRU's exact match
// is authoritative so false positives from the filter cannot drop a
// unique event.
type BloomLRU struct {
	bloom *BloomFilter
	lru   *LRUCache
	mu    sync.RWMutex

	bloomNegatives int64 // filter said definitely unseen
	lruChecks      int64 // filter said maybe, LRU consulted
	duplicates     int64 // LRU confirmed duplicate
}

// NewBloomLRU creates a deduplication cache remembering up to
// capacity keys for ttl.
func NewBloomLRU(capacity int, ttl time.Duration, falsePositiveRate float64) *BloomLRU {
	return &BloomLRU{
		bloom: NewBloomFilter(capacity, falsePositiveRate),
		lru:   NewLRUCache(capacity, ttl),
	}
}

// IsDuplicate checks whether key was seen within the TTL window and
// records it when it was not.
func (bl *BloomLRU) IsDuplicate(key string) bool {
	// Fast path: the filter proves the key was never recorded.
	if !bl.bloom.Test(key) {
		bl.mu.Lock()
		bl.bloomNegatives++
		bl.mu.Unlock()

		bl.bloom.Add(key)
		bl.lru.Add(key, time.Now())
		return false
	}

	bl.mu.Lock()
	bl.lruChecks++
	bl.mu.Unlock()

	if bl.lru.IsDuplicate(key) {
		bl.mu.Lock()
		bl.duplicates++
		bl.mu.Unlock()
		return true
	}

	// Filter false positive or an expired entry; IsDuplicate already
	// re-recorded the key in the LRU.
	bl.bloom.Add(key)
	return false
}

// Record marks key as seen without checking for duplicates. The
// consumer calls this only after the insert succeeds, so a failed
// insert stays retryable.
func (bl *BloomLRU) Record(key string) {
	bl.bloom.Add(key)
	bl.lru.Add(key, time.Now())
}

// Contains checks whether key was seen without modifying the cache.
func (bl *BloomLRU) Contains(key string) bool {
	if !bl.bloom.Test(key) {
		return false
	}
	return bl.lru.Contains(key)
}

// CleanupExpired sweeps the LRU. The Bloom filter keeps its bits;
// stale bits only cost an extra LRU check, never a wrong answer.
func (bl *BloomLRU) CleanupExpired() int {
	return bl.lru.CleanupExpired()
}

// Clear resets the filter, the LRU, and the counters.
func (bl *BloomLRU) Clear() {
	bl.bloom.Clear()
	bl.lru.Clear()

	bl.mu.Lock()
	bl.bloomNegatives = 0
	bl.lruChecks = 0
	bl.duplicates = 0
	bl.mu.Unlock()
}

// Stats returns the path counters and current LRU size.
func (bl *BloomLRU) Stats() (bloomNegatives, lruChecks, duplicates int64, lruSize int) {
	bl.mu.RLock()
	defer bl.mu.RUnlock()

	return bl.bloomNegatives, bl.lruChecks, bl.duplicates, bl.lru.Len()
}

// Len returns the number of keys tracked by the LRU.
func (bl *BloomLRU) Len() int {
	return bl.lru.Len()
}

// ExactLRU is the deduplication cache without the Bloom fast path:
// every check is an exact LRU lookup. Same guarantees, slightly more
// lock traffic, no filter state to size.
type ExactLRU struct {
	lru *LRUCache
	mu  sync.RWMutex

	checks     int64
	duplicates int64
}

// NewExactLRU creates an exact-match deduplication cache remembering
// up to capacity keys for ttl.
func NewExactLRU(capacity int, ttl time.Duration) *ExactLRU {
	return &ExactLRU{
		lru: NewLRUCache(capacity, ttl),
	}
}

// IsDuplicate checks whether key was seen within the TTL window and
// records it when it was not.
func (el *ExactLRU) IsDuplicate(key string) bool {
	el.mu.Lock()
	el.checks++
	el.mu.Unlock()

	isDup := el.lru.IsDuplicate(key)
	if isDup {
		el.mu.Lock()
		el.duplicates++
		el.mu.Unlock()
	}
	return isDup
}

// Record marks key as seen without checking for duplicates.
func (el *ExactLRU) Record(key string) {
	el.lru.Add(key, time.Now())
}

// Contains checks whether key was seen without modifying the cache.
func (el *ExactLRU) Contains(key string) bool {
	return el.lru.Contains(key)
}

// CleanupExpired sweeps expired entries.
func (el *ExactLRU) CleanupExpired() int {
	return el.lru.CleanupExpired()
}

// Clear resets the cache and counters.
func (el *ExactLRU) Clear() {
	el.lru.Clear()

	el.mu.Lock()
	el.checks = 0
	el.duplicates = 0
	el.mu.Unlock()
}

// Stats reports in the DeduplicationCache shape; bloomNegatives is
// always zero here.
func (el *ExactLRU) Stats() (bloomNegatives, lruChecks, duplicates int64, lruSize int) {
	el.mu.RLock()
	defer el.mu.RUnlock()

	return 0, el.checks, el.duplicates, el.lru.Len()
}

// Len returns the number of tracked keys.
func (el *ExactLRU) Len() int {
	return el.lru.Len()
}
