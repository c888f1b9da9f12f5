// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package sparse

import (
	"fmt"
	"sort"

	"github.com/tomtom215/lodestone/internal/models"
)

// COO accumulates matrix entries in coordinate form before compression.
// Entries may arrive in any order; duplicate (row, col) pairs are
// summed when the matrix is compressed.
type COO struct {
	rows, cols int
	entries    []cooEntry
}

type cooEntry struct {
	row, col int
	val      float64
}

// NewCOO returns an empty coordinate builder with the given dimensions.
func NewCOO(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols}
}

// Add records one entry. Positions outside the declared dimensions are
// a programming error and panic.
func (c *COO) Add(row, col int, val float64) {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		panic(fmt.Sprintf("sparse: entry (%d,%d) outside %dx%d matrix", row, col, c.rows, c.cols))
	}
	c.entries = append(c.entries, cooEntry{row: row, col: col, val: val})
}

// NNZ returns the number of entries recorded so far, before duplicate
// merging.
func (c *COO) NNZ() int {
	return len(c.entries)
}

// ToCSR compresses the coordinate entries into CSR form. Duplicate
// (row, col) entries are summed. The builder remains usable afterwards.
func (c *COO) ToCSR() *CSR {
	sorted := make([]cooEntry, len(c.entries))
	copy(sorted, c.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].row != sorted[j].row {
			return sorted[i].row < sorted[j].row
		}
		return sorted[i].col < sorted[j].col
	})

	m := &CSR{
		rows:   c.rows,
		cols:   c.cols,
		rowPtr: make([]int, c.rows+1),
		colInd: make([]int, 0, len(sorted)),
		values: make([]float64, 0, len(sorted)),
	}

	for i := 0; i < len(sorted); {
		e := sorted[i]
		sum := e.val
		j := i + 1
		for j < len(sorted) && sorted[j].row == e.row && sorted[j].col == e.col {
			sum += sorted[j].val
			j++
		}
		m.colInd = append(m.colInd, e.col)
		m.values = append(m.values, sum)
		m.rowPtr[e.row+1]++
		i = j
	}

	for r := 0; r < c.rows; r++ {
		m.rowPtr[r+1] += m.rowPtr[r]
	}
	return m
}

// CSR is a compressed sparse row matrix. Within each row, column
// indices are strictly increasing. CSR is immutable after construction
// and safe for concurrent reads.
type CSR struct {
	rows, cols int
	rowPtr     []int
	colInd     []int
	values     []float64
}

// Rows returns the row dimension.
func (m *CSR) Rows() int { return m.rows }

// Cols returns the column dimension.
func (m *CSR) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.values) }

// Row returns the column indices and values of row i. The returned
// slices alias the matrix storage and must not be modified. Rows
// outside the matrix return nil slices.
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	if i < 0 || i >= m.rows {
		return nil, nil
	}
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	return m.colInd[start:end], m.values[start:end]
}

// At returns the value at (i, j), zero when the entry is not stored or
// the position is outside the matrix.
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return 0
	}
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	row := m.colInd[start:end]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return m.values[start+k]
	}
	return 0
}

// Transpose returns a new CSR holding the transposed matrix, built
// with a counting pass over the entries.
func (m *CSR) Transpose() *CSR {
	t := &CSR{
		rows:   m.cols,
		cols:   m.rows,
		rowPtr: make([]int, m.cols+1),
		colInd: make([]int, len(m.colInd)),
		values: make([]float64, len(m.values)),
	}

	for _, j := range m.colInd {
		t.rowPtr[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		t.rowPtr[j+1] += t.rowPtr[j]
	}

	next := make([]int, m.cols)
	copy(next, t.rowPtr[:m.cols])
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.colInd[k]
			dst := next[j]
			t.colInd[dst] = i
			t.values[dst] = m.values[k]
			next[j]++
		}
	}
	return t
}

// Density returns the fraction of cells holding a stored entry, zero
// for a degenerate matrix.
func (m *CSR) Density() float64 {
	if m.rows == 0 || m.cols == 0 {
		return 0
	}
	return float64(len(m.values)) / (float64(m.rows) * float64(m.cols))
}

// RowNNZ returns the number of stored entries in row i.
func (m *CSR) RowNNZ(i int) int {
	if i < 0 || i >= m.rows {
		return 0
	}
	return m.rowPtr[i+1] - m.rowPtr[i]
}

// ConfidenceFunc transforms a rating value into an interaction
// confidence.
type ConfidenceFunc func(rating float64) float64

// LinearConfidence returns the standard implicit-feedback transform
// c = 1 + alpha*r from Hu, Koren and Volinsky (2008).
func LinearConfidence(alpha float64) ConfidenceFunc {
	return func(r float64) float64 { return 1 + alpha*r }
}

// FromRatings builds the user-by-item rating matrix. Users and items
// are added to the supplied indexes in first-seen order, so passing
// pre-populated indexes keeps existing positions. When conf is nil the
// raw rating value is stored; otherwise the transformed confidence is.
func FromRatings(ratings []models.Rating, users, items *Index, conf ConfidenceFunc) *CSR {
	for _, r := range ratings {
		users.Add(r.UserID)
		items.Add(r.MovieID)
	}

	coo := NewCOO(users.Len(), items.Len())
	for _, r := range ratings {
		row, _ := users.Pos(r.UserID)
		col, _ := items.Pos(r.MovieID)
		v := r.Rating
		if conf != nil {
			v = conf(r.Rating)
		}
		coo.Add(row, col, v)
	}
	return coo.ToCSR()
}
