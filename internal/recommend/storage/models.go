// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const modelExt = ".gob.gz"

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the algorithm name (e.g., "als", "popularity").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// InteractionCount is the number of interactions used for training.
	InteractionCount int `json:"interaction_count"`

	// ItemCount is the number of unique items.
	ItemCount int `json:"item_count"`

	// UserCount is the number of unique users.
	UserCount int `json:"user_count"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages model persistence under a single directory. It tracks
// the latest version per algorithm and is safe for concurrent use.
type Store struct {
	baseDir string

	mu       sync.RWMutex
	versions map[string]int
}

// NewStore creates a model store at the given directory, creating it
// if needed and scanning for previously saved models.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	return s, nil
}

// scanModels rebuilds the version index from files on disk.
func (s *Store) scanModels() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		if current, tracked := s.versions[name]; !tracked || version > current {
			s.versions[name] = version
		}
	}
	return nil
}

// parseModelFilename splits a filename like "als_v3.gob.gz" into the
// algorithm name and version.
func parseModelFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, modelExt)
	if !found {
		return "", 0, false
	}

	idx := strings.LastIndex(base, "_v")
	if idx < 1 {
		return "", 0, false
	}

	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:idx], version, true
}

// Save stores a model state under the given name and version. The
// write is atomic: a temporary file is renamed into place.
//
//nolint:gocritic // hugeParam: meta passed by value is acceptable for this write operation
func (s *Store) Save(_ context.Context, name string, version int, data interface{}, meta ModelMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.SavedAt = time.Now()
	meta.SizeBytes = int64(compressed.Len())

	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}
	if err := s.writeModelFile(name, version, sf); err != nil {
		return err
	}

	if current, tracked := s.versions[name]; !tracked || version > current {
		s.versions[name] = version
	}
	return nil
}

// writeModelFile writes a model file atomically via temp-and-rename.
//
//nolint:gocritic // hugeParam: sf is written once, copying is acceptable
func (s *Store) writeModelFile(name string, version int, sf storedFile) error {
	tmp, err := os.CreateTemp(s.baseDir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}

	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close model file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.modelPath(name, version)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish model file: %w", err)
	}
	return nil
}

// Load reads a model into target, which must be a pointer to the type
// that was saved. Version 0 loads the latest version. The checksum is
// verified before decoding.
func (s *Store) Load(_ context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		latest, ok := s.versions[name]
		if !ok {
			return nil, fmt.Errorf("no model found for %s", name)
		}
		version = latest
	}

	f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is built from the algorithm name, not user input
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &sf.Metadata, nil
}

// GetLatestVersion returns the latest stored version for an algorithm.
func (s *Store) GetLatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// ListModels returns metadata for the latest version of every stored
// model. Unreadable files are skipped.
func (s *Store) ListModels(_ context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]ModelMetadata, 0, len(s.versions))
	for name, version := range s.versions {
		f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is built from the algorithm name, not user input
		if err != nil {
			continue
		}

		var sf storedFile
		err = gob.NewDecoder(f).Decode(&sf)
		_ = f.Close()
		if err != nil {
			continue
		}
		models = append(models, sf.Metadata)
	}
	return models, nil
}

// Delete removes a specific model version. If the deleted version was
// the latest, the index falls back to the next newest on disk.
func (s *Store) Delete(_ context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}

	remaining, err := s.diskVersions(name)
	if err != nil {
		return fmt.Errorf("rescan versions: %w", err)
	}
	if len(remaining) == 0 {
		delete(s.versions, name)
		return nil
	}
	s.versions[name] = remaining[0]
	return nil
}

// Prune removes old versions of a model, keeping the newest
// keepVersions of them.
func (s *Store) Prune(_ context.Context, name string, keepVersions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	versions, err := s.diskVersions(name)
	if err != nil {
		return fmt.Errorf("scan versions: %w", err)
	}

	for _, v := range versions[min(keepVersions, len(versions)):] {
		// Best-effort cleanup of old versions.
		_ = os.Remove(s.modelPath(name, v))
	}
	return nil
}

// diskVersions returns all on-disk versions for an algorithm, newest
// first. Callers must hold the lock.
func (s *Store) diskVersions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		algName, version, ok := parseModelFilename(entry.Name())
		if ok && algName == name {
			versions = append(versions, version)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// modelPath returns the file path for a model version.
func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, modelExt))
}
