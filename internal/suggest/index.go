package suggest

import (
	"strings"

	"fintrack/internal/cache"
)

const memoSize = 64

// Index is an immutable, normalized candidate set. Filter results are
// memoized per Index, so two indexes never share entries.
type Index struct {
	values []string
	memo   *cache.LRUCache[[]string]
}

// NewIndex normalizes candidates once.
func NewIndex(candidates []string) *Index {
	return &Index{
		values: Normalize(candidates),
		memo:   cache.NewLRUCache[[]string](memoSize, 0),
	}
}

// Len reports the number of normalized candidates.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.values)
}

// candidates returns a copy of the normalized candidates.
func (ix *Index) candidates() []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.values...)
}

// Suggest returns up to MaxResults candidates matching query.
// A nil Index suggests nothing.
func (ix *Index) Suggest(query string) []string {
	if ix == nil {
		return []string{}
	}
	key := strings.ToLower(strings.TrimSpace(query))
	if hit, ok := ix.memo.Get(key); ok {
		return append([]string(nil), hit...)
	}
	out := Filter(key, ix.values, MaxResults)
	ix.memo.Set(key, out)
	return append([]string(nil), out...)
}
