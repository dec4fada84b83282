// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package state persists the provider catalog: one record per provider plus a metadata index.
package state

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	MetadataFile = "metadata.json"
	RecordsDir   = "providers"
	recordExt    = ".json"
)

// ErrNotFound is returned when the metadata index or a record does not exist.
var ErrNotFound = errors.Base("not found")

// 📇 Metadata is the index of a complete catalog fetch
type Metadata struct {
	LastFetchedAt time.Time `json:"lastFetched"`
	Providers     []Entry   `json:"providers"`
}

// Entry describes one persisted provider record
type Entry struct {
	ProviderID  string    `json:"providerId"`
	LastUpdated time.Time `json:"lastUpdated"`
	HasLogo     bool      `json:"hasLogo"`
}

// Age returns how long ago the catalog was fetched.
func (m *Metadata) Age(now time.Time) time.Duration {
	return now.Sub(m.LastFetchedAt)
}

// Fresh reports whether the catalog is younger than ttl.
func (m *Metadata) Fresh(now time.Time, ttl time.Duration) bool {
	return m.Age(now) < ttl
}

// IDs returns the provider ids in index order.
func (m *Metadata) IDs() []string {
	ids := make([]string, len(m.Providers))
	for i, e := range m.Providers {
		ids[i] = e.ProviderID
	}
	return ids
}

// 💾 Store reads and writes catalog files under a root directory
//
//	<root>/metadata.json
//	<root>/providers/<id>.json
//
// Every write goes through a temp file and a rename, so readers never see a
// partial file.
type Store struct {
	root string
}

// 🏭 New creates a store rooted at root; directories are created on first write
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.Errorf("state root is required")
	}
	return &Store{root: filepath.Clean(root)}, nil
}

// Root returns the cache root.
func (s *Store) Root() string { return s.root }

// MetadataPath returns the location of the index file.
func (s *Store) MetadataPath() string { return filepath.Join(s.root, MetadataFile) }

// RecordPath returns the location of the record for id.
func (s *Store) RecordPath(id string) (string, error) {
	name, err := recordName(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, RecordsDir, name), nil
}

// recordName maps a provider id to a file name that cannot escape the records directory
func recordName(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return "", errors.Errorf("invalid provider id %q", id)
	}
	return url.PathEscape(id) + recordExt, nil
}

// 📖 LoadMetadata reads the index
//
// A missing index returns ErrNotFound; an unreadable one returns a decode error.
func (s *Store) LoadMetadata(ctx context.Context) (*Metadata, error) {
	data, err := os.ReadFile(s.MetadataPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithStack(ErrNotFound)
		}
		return nil, errors.Errorf("reading metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Errorf("decoding metadata: %w", err)
	}
	if md.LastFetchedAt.IsZero() {
		return nil, errors.Errorf("decoding metadata: missing lastFetched")
	}

	zerolog.Ctx(ctx).Trace().Int("entries", len(md.Providers)).Time("last_fetched", md.LastFetchedAt).Msg("metadata loaded")
	return &md, nil
}

// 📝 SaveMetadata replaces the index atomically
func (s *Store) SaveMetadata(ctx context.Context, md *Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return errors.Errorf("encoding metadata: %w", err)
	}
	if err := WriteFileAtomic(s.MetadataPath(), data); err != nil {
		return errors.Errorf("writing metadata: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Int("entries", len(md.Providers)).Msg("metadata saved")
	return nil
}

// ReadRecord decodes the record for id into v.
func (s *Store) ReadRecord(ctx context.Context, id string, v any) error {
	path, err := s.RecordPath(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("record %s: %w", id, ErrNotFound)
		}
		return errors.Errorf("reading record %s: %w", id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Errorf("decoding record %s: %w", id, err)
	}
	return nil
}

// WriteRecord encodes v and replaces the record for id atomically.
func (s *Store) WriteRecord(ctx context.Context, id string, v any) error {
	path, err := s.RecordPath(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Errorf("encoding record %s: %w", id, err)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return errors.Errorf("writing record %s: %w", id, err)
	}
	return nil
}

// RemoveRecord deletes the record for id; a missing record is not an error.
func (s *Store) RemoveRecord(ctx context.Context, id string) error {
	path, err := s.RecordPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing record %s: %w", id, err)
	}
	return nil
}

// 🔍 ListRecords returns the ids of every record on disk, sorted
func (s *Store) ListRecords(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, RecordsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("listing records: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// 🧹 Clear removes the index and every record
func (s *Store) Clear(ctx context.Context) error {
	if err := os.Remove(s.MetadataPath()); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing metadata: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.root, RecordsDir)); err != nil {
		return errors.Errorf("removing records: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("root", s.root).Msg("provider cache cleared")
	return nil
}

// WriteFileAtomic writes content to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("setting permissions: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}
