package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/sandevgo/shopclerk/internal/core"
)

// Field weights for combining per-field match quality into one item score.
const (
	weightTitle       = 0.4
	weightDescription = 0.3
	weightContent     = 0.2
	weightTags        = 0.1
)

// indexedItem caches the lowercased field texts so repeated searches skip
// the normalization work.
type indexedItem struct {
	item        core.SearchableItem
	title       string
	description string
	content     string
	tags        string
}

// Index is a precomputed snapshot over one item collection enabling
// approximate, weighted, multi-field matching. Rebuilt wholesale; never
// mutated in place, so it is safe for concurrent readers.
type Index struct {
	items []indexedItem
}

func NewIndex(items []core.SearchableItem) *Index {
	ix := &Index{items: make([]indexedItem, 0, len(items))}
	for _, it := range items {
		ix.items = append(ix.items, indexedItem{
			item:        it,
			title:       strings.ToLower(it.Title),
			description: strings.ToLower(it.Description),
			content:     strings.ToLower(it.Content),
			tags:        strings.ToLower(strings.Join(it.Tags, " ")),
		})
	}
	return ix
}

func (ix *Index) Len() int {
	return len(ix.items)
}

// Search returns up to limit items ranked by descending match score.
// Scores are in [0,1] with 1 a perfect match; ties keep the original item
// order. Queries shorter than the minimum match length yield nothing.
func (ix *Index) Search(query string, limit int) []core.SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < minMatchLength || limit <= 0 {
		return nil
	}
	tokens := queryTokens(query)

	var results []core.SearchResult
	for _, it := range ix.items {
		d := it.distance(query, tokens)
		if d > maxDistance {
			continue
		}
		results = append(results, core.SearchResult{
			ID:          it.item.ID,
			Type:        it.item.Type,
			Title:       it.item.Title,
			Description: it.item.Description,
			Score:       1 - d,
			Metadata:    it.item.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// distance combines the per-field distances into one item distance as the
// weighted geometric mean over the fields the item actually has. Absent
// fields neither help nor hurt.
func (it *indexedItem) distance(query string, tokens []string) float64 {
	combined := 1.0
	apply := func(text string, weight float64) {
		if text == "" {
			return
		}
		d := fieldDistance(query, tokens, text)
		if d < distanceFloor {
			d = distanceFloor
		}
		combined *= math.Pow(d, weight)
	}

	apply(it.title, weightTitle)
	apply(it.description, weightDescription)
	apply(it.content, weightContent)
	apply(it.tags, weightTags)
	return combined
}
