// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package sparse

// Index is a bidirectional mapping between external int64 identifiers
// and dense zero-based matrix positions. Positions are assigned in
// insertion order and are stable for the lifetime of the index.
//
// Index is not safe for concurrent mutation; build it up front, then
// share it read-only.
type Index struct {
	pos map[int64]int
	ids []int64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{pos: make(map[int64]int)}
}

// NewIndexWithCapacity returns an empty index sized for n entries.
func NewIndexWithCapacity(n int) *Index {
	return &Index{
		pos: make(map[int64]int, n),
		ids: make([]int64, 0, n),
	}
}

// Add returns the dense position for id, assigning the next free
// position on first sight. Adding an existing id returns its original
// position.
func (ix *Index) Add(id int64) int {
	if p, ok := ix.pos[id]; ok {
		return p
	}
	p := len(ix.ids)
	ix.pos[id] = p
	ix.ids = append(ix.ids, id)
	return p
}

// Pos returns the dense position for id.
func (ix *Index) Pos(id int64) (int, bool) {
	p, ok := ix.pos[id]
	return p, ok
}

// ID returns the external identifier at a dense position.
func (ix *Index) ID(pos int) (int64, bool) {
	if pos < 0 || pos >= len(ix.ids) {
		return 0, false
	}
	return ix.ids[pos], true
}

// Len returns the number of indexed identifiers.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// IDs returns the identifiers in position order. The returned slice is
// a copy.
func (ix *Index) IDs() []int64 {
	out := make([]int64, len(ix.ids))
	copy(out, ix.ids)
	return out
}
