// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package storage provides model persistence for recommendation algorithms.
//
// Trained models are serialized with gob, gzip-compressed, and written
// with a SHA-256 checksum so corruption is detected on load. Each
// algorithm's state is stored separately under its own version
// sequence, enabling independent retraining and rollback.
//
// # Storage Format
//
// One file per model version:
//
//	filename: {algorithm_name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata: version, timestamps, counts, checksum)
//	  - CompressedData (gzip-compressed gob-encoded model state)
//
// Saves are atomic: data is written to a temporary file in the same
// directory and renamed into place, so a crash mid-write never leaves
// a truncated model behind.
//
// # Usage
//
// Exporting after training and restoring at startup:
//
//	store, err := storage.NewStore("/var/lib/lodestone/models")
//
//	state, err := als.ExportState()
//	err = store.Save(ctx, als.Name(), state.Version, state, storage.ModelMetadata{
//	    TrainedAt: state.TrainedAt,
//	})
//
//	var restored algorithms.ALSState
//	meta, err := store.Load(ctx, "als", 0, &restored) // version 0 = latest
//	err = als.RestoreState(&restored)
//
// # Thread Safety
//
// All Store operations are safe for concurrent use.
package storage
