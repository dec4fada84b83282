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
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	recordIndent = 4  // spaces to indent record entries
	idWidth      = 24 // width for the provider id
	nameWidth    = 30 // width for the provider name
)

// 🎯 FormatRecord formats one record for display
func FormatRecord(rec Record) string {
	var prefix string
	switch rec.Status {
	case StatusPresent:
		prefix = color.GreenString("✓")
	case StatusOrphan:
		prefix = color.YellowString("?")
	case StatusMissing, StatusCorrupt:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	logo := ""
	if rec.HasLogo {
		logo = "🖼️"
	}

	line := fmt.Sprintf("%s%s %-*s %-*s %-8s %s",
		strings.Repeat(" ", recordIndent),
		prefix,
		idWidth, rec.ID,
		nameWidth, rec.Name,
		rec.Status,
		logo,
	)
	if rec.Err != nil {
		line += " " + color.RedString(rec.Err.Error())
	}
	return strings.TrimRight(line, " ")
}

// 📝 FormatSummary formats the header line of a report
func FormatSummary(r *Report) string {
	switch {
	case !r.HasMetadata:
		return fmt.Sprintf("📭 No cached catalog in %s", r.Root)
	case r.MetadataErr != nil:
		return fmt.Sprintf("❌ Unreadable catalog index in %s: %v", r.Root, r.MetadataErr)
	}

	freshness := color.GreenString("fresh")
	if !r.Fresh {
		freshness = color.YellowString("stale")
	}
	return fmt.Sprintf("📦 %d providers (%d with logo) fetched %s ago, %s (ttl %s)",
		r.Count(StatusPresent), r.WithLogo(), r.Age.Round(time.Second), freshness, r.TTL)
}

// Format renders the whole report, one line per record after the summary.
func Format(r *Report) []string {
	lines := []string{FormatSummary(r)}
	for _, rec := range r.Records {
		if rec.Status == StatusPresent {
			continue
		}
		lines = append(lines, FormatRecord(rec))
	}
	return lines
}

// FormatAll is Format including healthy records.
func FormatAll(r *Report) []string {
	lines := []string{FormatSummary(r)}
	for _, rec := range r.Records {
		lines = append(lines, FormatRecord(rec))
	}
	return lines
}
