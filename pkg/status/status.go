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
package status

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// 📊 RecordStatus is the condition of one indexed provider record
type RecordStatus int

const (
	StatusUnknown RecordStatus = iota
	StatusPresent              // record decodes and matches its index entry
	StatusMissing              // indexed but no file on disk
	StatusCorrupt              // file exists but does not decode
	StatusOrphan               // file on disk that the index does not mention
)

// String returns a string representation of RecordStatus
func (s RecordStatus) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	case StatusOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// 📄 Record describes one provider file
type Record struct {
	ID      string
	Name    string
	HasLogo bool
	Status  RecordStatus
	Err     error
}

// 📋 Report summarizes the on-disk provider cache
type Report struct {
	Root          string
	HasMetadata   bool
	MetadataErr   error // set when the index exists but cannot be read
	LastFetchedAt time.Time
	Age           time.Duration
	TTL           time.Duration
	Fresh         bool
	Records       []Record
}

// Count returns how many records have the given status.
func (r *Report) Count(s RecordStatus) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == s {
			n++
		}
	}
	return n
}

// WithLogo returns how many present records carry an embedded logo.
func (r *Report) WithLogo() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == StatusPresent && rec.HasLogo {
			n++
		}
	}
	return n
}

// Healthy reports whether the next lookup would be served from disk.
func (r *Report) Healthy() bool {
	return r.HasMetadata && r.MetadataErr == nil && r.Fresh && r.Count(StatusPresent) > 0
}

// 🔍 Inspect reads the cache index and checks every record it names
//
// Only I/O failures on the cache root itself are returned as errors; a missing
// or unreadable index is reported in the Report.
func Inspect(ctx context.Context, store *state.Store, ttl time.Duration, now time.Time) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	report := &Report{Root: store.Root(), TTL: ttl}

	md, err := store.LoadMetadata(ctx)
	switch {
	case err == nil:
		report.HasMetadata = true
		report.LastFetchedAt = md.LastFetchedAt
		report.Age = md.Age(now)
		report.Fresh = md.Fresh(now, ttl)
	case errors.Is(err, state.ErrNotFound):
		md = &state.Metadata{}
	default:
		report.HasMetadata = true
		report.MetadataErr = err
		md = &state.Metadata{}
	}

	indexed := make(map[string]bool, len(md.Providers))
	for _, e := range md.Providers {
		indexed[e.ProviderID] = true
		report.Records = append(report.Records, check(ctx, store, e))
	}

	onDisk, err := store.ListRecords(ctx)
	if err != nil {
		return nil, errors.Errorf("inspecting %s: %w", store.Root(), err)
	}
	for _, id := range onDisk {
		if !indexed[id] {
			report.Records = append(report.Records, Record{ID: id, Status: StatusOrphan})
		}
	}

	logger.Debug().
		Bool("has_metadata", report.HasMetadata).
		Bool("fresh", report.Fresh).
		Int("records", len(report.Records)).
		Msg("cache inspected")

	return report, nil
}

func check(ctx context.Context, store *state.Store, e state.Entry) Record {
	rec := Record{ID: e.ProviderID, HasLogo: e.HasLogo}

	var p provider.Provider
	err := store.ReadRecord(ctx, e.ProviderID, &p)
	switch {
	case err == nil && p.ID == e.ProviderID:
		rec.Status = StatusPresent
		rec.Name = p.Name
	case err == nil:
		rec.Status = StatusCorrupt
		rec.Err = errors.Errorf("record holds provider %q", p.ID)
	case errors.Is(err, state.ErrNotFound):
		rec.Status = StatusMissing
	default:
		rec.Status = StatusCorrupt
		rec.Err = err
	}
	return rec
}
