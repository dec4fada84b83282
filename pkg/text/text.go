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

// Package text normalizes and ranks provider names for search.
package text

import (
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 🏅 Rank orders matches, lower is better
type Rank int

const (
	NoMatch  Rank = -1
	Prefix   Rank = 0 // query starts a field, or a glob matches one
	Contains Rank = 1 // query appears inside a field
	Fuzzy    Rank = 2 // query characters appear in order
)

func (r Rank) String() string {
	switch r {
	case Prefix:
		return "prefix"
	case Contains:
		return "contains"
	case Fuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

const globMeta = "*?[{"

// 🔤 Normalize folds s for comparison
//
// Trims, lower-cases, strips diacritics (NFD without combining marks) and
// collapses runs of whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// IsGlob reports whether query uses glob syntax.
func IsGlob(query string) bool {
	return strings.ContainsAny(query, globMeta)
}

// 🔍 Match ranks query against fields and returns the best rank
//
// An empty query matches everything at Prefix. Glob queries are matched with
// doublestar against each whole field and never fall back to fuzzy matching.
func Match(query string, fields ...string) Rank {
	q := Normalize(query)
	if q == "" {
		return Prefix
	}

	best := NoMatch
	better := func(r Rank) {
		if best == NoMatch || r < best {
			best = r
		}
	}

	glob := IsGlob(q)
	for _, f := range fields {
		nf := Normalize(f)
		if nf == "" {
			continue
		}

		if glob {
			if ok, err := doublestar.Match(q, nf); err == nil && ok {
				better(Prefix)
			}
			continue
		}

		switch {
		case strings.HasPrefix(nf, q):
			better(Prefix)
		case strings.Contains(nf, q):
			better(Contains)
		case fuzzy.Match(q, nf):
			better(Fuzzy)
		}
	}
	return best
}
