// Package suggest derives autocomplete lists from candidate labels.
//
// Everything here except Loader is pure: the same candidates and query always
// produce the same ordered output.
package suggest

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxResults is how many suggestions a field offers at most.
const MaxResults = 8

// Normalize trims candidates, drops empty ones, removes exact duplicates and
// sorts the rest with English collation.
func Normalize(candidates []string) []string {
	return normalize(candidates, language.English)
}

func normalize(candidates []string, tag language.Tag) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	// A Collator is not safe for concurrent use.
	col := collate.New(tag)
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := col.CompareString(out[i], out[j]); cmp != 0 {
			return cmp < 0
		}
		return out[i] < out[j]
	})
	return out
}

// Filter keeps the normalized candidates containing query, compared
// case-insensitively, and returns at most limit of them in their original
// order. A blank query keeps everything.
func Filter(query string, normalized []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, min(limit, len(normalized)))
	for _, c := range normalized {
		if len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}

// Suggest is Filter over Normalize, capped at MaxResults.
func Suggest(candidates []string, query string) []string {
	return Filter(query, Normalize(candidates), MaxResults)
}
