// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package sparse

import (
	"testing"
)

func TestIndexAdd(t *testing.T) {
	ix := NewIndex()

	if got := ix.Add(42); got != 0 {
		t.Errorf("Add(42) = %d, want 0", got)
	}
	if got := ix.Add(7); got != 1 {
		t.Errorf("Add(7) = %d, want 1", got)
	}
	if got := ix.Add(42); got != 0 {
		t.Errorf("Add(42) again = %d, want original position 0", got)
	}
	if ix.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ix.Len())
	}
}

func TestIndexPos(t *testing.T) {
	ix := NewIndex()
	ix.Add(100)
	ix.Add(200)

	pos, ok := ix.Pos(200)
	if !ok || pos != 1 {
		t.Errorf("Pos(200) = %d, %v, want 1, true", pos, ok)
	}
	if _, ok := ix.Pos(999); ok {
		t.Error("Pos(999) = ok for unindexed id")
	}
}

func TestIndexID(t *testing.T) {
	ix := NewIndex()
	ix.Add(100)
	ix.Add(200)

	id, ok := ix.ID(0)
	if !ok || id != 100 {
		t.Errorf("ID(0) = %d, %v, want 100, true", id, ok)
	}
	if _, ok := ix.ID(2); ok {
		t.Error("ID(2) = ok beyond length")
	}
	if _, ok := ix.ID(-1); ok {
		t.Error("ID(-1) = ok for negative position")
	}
}

func TestIndexRoundTrip(t *testing.T) {
	ix := NewIndexWithCapacity(16)
	ids := []int64{31, 1029, 1061, 1129, 1172}

	for _, id := range ids {
		ix.Add(id)
	}

	for want, id := range ids {
		pos, ok := ix.Pos(id)
		if !ok || pos != want {
			t.Errorf("Pos(%d) = %d, %v, want %d, true", id, pos, ok, want)
		}
		back, ok := ix.ID(pos)
		if !ok || back != id {
			t.Errorf("ID(%d) = %d, %v, want %d, true", pos, back, ok, id)
		}
	}
}

func TestIndexIDs(t *testing.T) {
	ix := NewIndex()
	ix.Add(5)
	ix.Add(3)
	ix.Add(9)

	ids := ix.IDs()
	want := []int64{5, 3, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %d, want %d (insertion order)", i, ids[i], want[i])
		}
	}

	// Mutating the copy must not affect the index.
	ids[0] = 999
	if id, _ := ix.ID(0); id != 5 {
		t.Errorf("index mutated through IDs() copy: ID(0) = %d", id)
	}
}
