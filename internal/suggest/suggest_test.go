package suggest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	got := Normalize([]string{"  cherry ", "Banana", "", "   ", "apple", "Banana", "banana", "éclair", "ezra"})
	assert.Equal(t, []string{"apple", "banana", "Banana", "cherry", "éclair", "ezra"}, got)
}

func TestNormalizeIsCaseSensitiveDedupe(t *testing.T) {
	got := Normalize([]string{"Milk", "milk", "Milk "})
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"Milk", "milk"}, got)
}

func TestFilter(t *testing.T) {
	normalized := []string{"Almond milk", "Bread", "Milk", "Oat Milk", "Skimmed milk"}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"empty query keeps all", "", 10, normalized},
		{"blank query keeps all", "   ", 10, normalized},
		{"substring not prefix", "MILK", 10, []string{"Almond milk", "Milk", "Oat Milk", "Skimmed milk"}},
		{"trimmed query", "  brea ", 10, []string{"Bread"}},
		{"truncation keeps order", "milk", 2, []string{"Almond milk", "Milk"}},
		{"no match", "tea", 10, []string{}},
		{"zero limit", "", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.query, normalized, tt.limit))
		})
	}
}

func TestSuggestCapsAtEight(t *testing.T) {
	var candidates []string
	for _, c := range "jihgfedcba" {
		candidates = append(candidates, string(c))
	}

	got := Suggest(candidates, "")
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, got)
}

func TestSuggestResultsContainQuery(t *testing.T) {
	candidates := []string{"Tesco", "Tesco Express", "Sainsbury's", "Pret", "Costa", "TESCO metro", "test kitchen"}
	for _, q := range []string{"tes", "ES", " co ", "x"} {
		got := Suggest(candidates, q)
		assert.Equal(t, got, Suggest(candidates, q), "deterministic")
		for _, s := range got {
			assert.Contains(t, strings.ToLower(s), strings.ToLower(strings.TrimSpace(q)))
		}
	}
}

func TestIndexMemoizesPerIndex(t *testing.T) {
	a := NewIndex([]string{"Groceries", "Gifts", "Rent"})
	b := NewIndex([]string{"Gym"})

	assert.Equal(t, []string{"Gifts", "Groceries"}, a.Suggest("g"))
	assert.Equal(t, []string{"Gym"}, b.Suggest("g"))
	assert.Equal(t, []string{"Gifts", "Groceries"}, a.Suggest(" G "))

	got := a.Suggest("g")
	got[0] = "mutated"
	assert.Equal(t, []string{"Gifts", "Groceries"}, a.Suggest("g"))
}

func TestNilIndex(t *testing.T) {
	var ix *Index
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Suggest("x"))
	assert.Nil(t, ix.candidates())
}

func TestParseField(t *testing.T) {
	for _, s := range []string{"item", "category", "merchant"} {
		f, err := ParseField(s)
		assert.NoError(t, err)
		assert.Equal(t, Field(s), f)
	}
	_, err := ParseField("payer")
	assert.Error(t, err)
}
