package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/pkg/conv"
	"github.com/sandevgo/shopclerk/pkg/log"
)

// Service owns one fuzzy index per collection and exposes unified and
// per-collection search over them. Indices are built from the catalog on
// Initialize or lazily on first search.
type Service struct {
	catalog core.Catalog

	initMu sync.Mutex // serializes index builds

	mu         sync.RWMutex // guards the fields below
	ready      bool
	products   *Index
	categories *Index
	docs       *Index
}

func NewService(catalog core.Catalog) *Service {
	return &Service{catalog: catalog}
}

// Initialize builds all three indices from the catalog. Calling it again
// while already initialized is a no-op; use Refresh to force a rebuild.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	if ready {
		return nil
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.RLock()
	ready = s.ready
	s.mu.RUnlock()
	if ready {
		return nil
	}

	return s.rebuild(ctx)
}

// Refresh rebuilds every index from the current catalog contents.
func (s *Service) Refresh(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.rebuild(ctx)
}

// rebuild constructs fresh indices outside the read lock and swaps them in
// atomically. Callers must hold initMu.
func (s *Service) rebuild(ctx context.Context) error {
	products, err := s.catalog.ListActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	categories, err := s.catalog.ListActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	docs, err := s.catalog.ListDocPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documentation: %w", err)
	}

	productIndex := NewIndex(productItems(products))
	categoryIndex := NewIndex(categoryItems(categories))
	docIndex := NewIndex(docItems(ctx, docs))

	s.mu.Lock()
	s.products = productIndex
	s.categories = categoryIndex
	s.docs = docIndex
	s.ready = true
	s.mu.Unlock()

	log.FromCtx(ctx).Info().
		Int("products", productIndex.Len()).
		Int("categories", categoryIndex.Len()).
		Int("documentation", docIndex.Len()).
		Msg("search indices built")
	return nil
}

// Search queries all three collections and merges the hits into one list
// ranked by descending score, truncated to limit. The per-collection
// quotas are limit/2 products, limit/4 categories and limit/4
// documentation pages; a collection returning fewer hits than its quota
// does not hand the shortfall to the others, so the merged list may
// under-fill the limit. Kept as-is: callers depend on the exact counts.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.products.Search(query, limit/2)
	results = append(results, s.categories.Search(query, limit/4)...)
	results = append(results, s.docs.Search(query, limit/4)...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Service) SearchProducts(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	return s.searchOne(ctx, query, limit, func() *Index { return s.products })
}

func (s *Service) SearchCategories(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	return s.searchOne(ctx, query, limit, func() *Index { return s.categories })
}

func (s *Service) SearchDocumentation(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	return s.searchOne(ctx, query, limit, func() *Index { return s.docs })
}

func (s *Service) searchOne(ctx context.Context, query string, limit int, pick func() *Index) ([]core.SearchResult, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick().Search(query, limit), nil
}

func productItems(products []core.Product) []core.SearchableItem {
	items := make([]core.SearchableItem, 0, len(products))
	for _, p := range products {
		items = append(items, core.SearchableItem{
			ID:          p.ID,
			Type:        core.ItemProduct,
			Title:       p.Name,
			Description: p.Description,
			Tags:        []string{p.Category},
			Metadata:    map[string]any{"price": p.Price, "category": p.Category},
		})
	}
	return items
}

func categoryItems(categories []core.Category) []core.SearchableItem {
	items := make([]core.SearchableItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, core.SearchableItem{
			ID:          c.ID,
			Type:        core.ItemCategory,
			Title:       c.Name,
			Description: c.Description,
			Tags:        []string{c.Slug},
			Metadata:    map[string]any{"slug": c.Slug},
		})
	}
	return items
}

func docItems(ctx context.Context, docs []core.DocPage) []core.SearchableItem {
	items := make([]core.SearchableItem, 0, len(docs))
	for _, d := range docs {
		body, err := conv.HTMLToText(d.Body)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("doc", d.ID).Msg("failed to flatten doc body, indexing raw")
			body = d.Body
		}
		items = append(items, core.SearchableItem{
			ID:          d.ID,
			Type:        core.ItemDocumentation,
			Title:       d.Title,
			Description: d.Summary,
			Content:     body,
			Tags:        d.Tags,
		})
	}
	return items
}
