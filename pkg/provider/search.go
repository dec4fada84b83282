package provider

import (
	"sort"

	"github.com/walteh/loyalty/pkg/text"
)

// 🔍 Result is a provider matched by Search
type Result struct {
	Provider
	Rank text.Rank
}

// Search ranks providers against query by name, id and search terms.
//
// Prefix matches come first, then substring and fuzzy matches; ties are
// ordered by normalized name.
func Search(providers []Provider, query string) []Result {
	out := make([]Result, 0, len(providers))
	for _, p := range providers {
		fields := append([]string{p.Name, p.ID}, p.SearchTerms...)
		r := text.Match(query, fields...)
		if r == text.NoMatch {
			continue
		}
		out = append(out, Result{Provider: p, Rank: r})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return text.Normalize(out[i].Name) < text.Normalize(out[j].Name)
	})
	return out
}
