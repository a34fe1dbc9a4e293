package retrieval

import (
	"testing"

	"github.com/sandevgo/shopclerk/internal/core"
)

func testItems() []core.SearchableItem {
	return []core.SearchableItem{
		{
			ID:          "p1",
			Type:        core.ItemProduct,
			Title:       "Dining Table",
			Description: "Solid oak dining table for six",
			Tags:        []string{"tables"},
		},
		{
			ID:          "p2",
			Type:        core.ItemProduct,
			Title:       "Coffee Table",
			Description: "Low walnut coffee table",
			Tags:        []string{"tables"},
		},
		{
			ID:          "p3",
			Type:        core.ItemProduct,
			Title:       "Office Chair",
			Description: "Ergonomic mesh office chair",
			Tags:        []string{"chairs"},
		},
	}
}

func TestIndexSearch_RankedAndBounded(t *testing.T) {
	ix := NewIndex(testItems())

	results := ix.Search("dining table", 10)
	if len(results) == 0 {
		t.Fatal("expected results for matching query")
	}
	if results[0].ID != "p1" {
		t.Errorf("top result = %s, want p1", results[0].ID)
	}

	for i, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %f out of [0,1]", r.Score)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestIndexSearch_LimitRespected(t *testing.T) {
	ix := NewIndex(testItems())

	results := ix.Search("table", 1)
	if len(results) > 1 {
		t.Fatalf("got %d results, want at most 1", len(results))
	}
}

func TestIndexSearch_ShortQueryYieldsNothing(t *testing.T) {
	ix := NewIndex(testItems())

	for _, q := range []string{"", "x", " x "} {
		if got := ix.Search(q, 5); got != nil {
			t.Errorf("Search(%q) = %v, want nil", q, got)
		}
	}
}

func TestIndexSearch_NoResemblanceFiltered(t *testing.T) {
	ix := NewIndex(testItems())

	if got := ix.Search("zzzz qqqq", 5); len(got) != 0 {
		t.Errorf("Search(gibberish) = %v, want empty", got)
	}
}

func TestIndexSearch_TiePreservesItemOrder(t *testing.T) {
	items := []core.SearchableItem{
		{ID: "a", Type: core.ItemProduct, Title: "Bench", Description: "Garden bench"},
		{ID: "b", Type: core.ItemProduct, Title: "Bench", Description: "Garden bench"},
	}
	ix := NewIndex(items)

	results := ix.Search("bench", 5)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("tie order = %s,%s, want a,b", results[0].ID, results[1].ID)
	}
}
