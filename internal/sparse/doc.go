// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package sparse provides the identifier indexing and sparse matrix
// primitives underlying the recommendation algorithms.
//
// External identifiers (MovieLens user and movie IDs) are arbitrary
// int64 values with gaps; matrix algorithms want dense zero-based
// positions. Index provides the bidirectional mapping:
//
//	users := sparse.NewIndex()
//	row := users.Add(userID)     // dense position, stable per ID
//	id, ok := users.ID(row)      // reverse lookup
//
// Matrices are built in COO (coordinate) form and compressed to CSR
// (compressed sparse row) for iteration and transposition:
//
//	coo := sparse.NewCOO(users.Len(), items.Len())
//	coo.Add(row, col, value)
//	m := coo.ToCSR()
//	cols, vals := m.Row(row)
//
// FromRatings wires the two together for the rating matrix, applying
// the implicit-feedback confidence transform c = 1 + alpha*r when a
// confidence function is supplied.
//
// Out-of-range positions panic during construction (COO.Add) since
// they indicate a programming error; query methods (At, Row) treat
// out-of-range positions as empty and never panic.
package sparse
