package retrieval

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/sandevgo/shopclerk/internal/core"
)

type fakeCatalog struct {
	products   []core.Product
	categories []core.Category
	docs       []core.DocPage
	listCalls  int
	err        error
}

func (f *fakeCatalog) ListActiveProducts(ctx context.Context) ([]core.Product, error) {
	f.listCalls++
	return f.products, f.err
}

func (f *fakeCatalog) ListActiveCategories(ctx context.Context) ([]core.Category, error) {
	return f.categories, f.err
}

func (f *fakeCatalog) ListDocPages(ctx context.Context) ([]core.DocPage, error) {
	return f.docs, f.err
}

func matchingCatalog(products int) *fakeCatalog {
	cat := &fakeCatalog{}
	for i := 0; i < products; i++ {
		cat.products = append(cat.products, core.Product{
			ID:          fmt.Sprintf("p%d", i),
			Name:        fmt.Sprintf("Lounge Chair %d", i),
			Description: "A lounge chair with walnut legs",
			Category:    "chairs",
			Price:       199,
		})
	}
	cat.categories = []core.Category{
		{ID: "c1", Name: "Lounge Chairs", Description: "All lounge chairs", Slug: "lounge-chairs"},
	}
	cat.docs = []core.DocPage{
		{ID: "d1", Title: "Caring for your lounge chair", Summary: "Lounge chair maintenance", Body: "<p>Wipe the lounge chair weekly.</p>"},
	}
	return cat
}

func TestService_UnifiedSearchQuotas(t *testing.T) {
	svc := NewService(matchingCatalog(10))

	results, err := svc.Search(context.Background(), "lounge chair", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := map[core.ItemType]int{}
	for _, r := range results {
		counts[r.Type]++
	}

	// limit/2 products, limit/4 categories, limit/4 documentation.
	if counts[core.ItemProduct] != 4 {
		t.Errorf("products = %d, want 4", counts[core.ItemProduct])
	}
	if counts[core.ItemCategory] != 1 {
		t.Errorf("categories = %d, want 1", counts[core.ItemCategory])
	}
	if counts[core.ItemDocumentation] != 1 {
		t.Errorf("documentation = %d, want 1", counts[core.ItemDocumentation])
	}

	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Fatalf("merged results not sorted at %d", i)
		}
	}
}

func TestService_NoQuotaRedistribution(t *testing.T) {
	// Only products match; the category and documentation quotas go
	// unused and the merged list under-fills the limit.
	cat := matchingCatalog(10)
	cat.categories = nil
	cat.docs = nil
	svc := NewService(cat)

	results, err := svc.Search(context.Background(), "lounge chair", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("got %d results, want 4 (product quota only)", len(results))
	}
}

func TestService_InitializeIdempotent(t *testing.T) {
	cat := matchingCatalog(3)
	svc := NewService(cat)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	first, err := svc.SearchProducts(ctx, "lounge", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	second, err := svc.SearchProducts(ctx, "lounge", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("search results changed after repeated Initialize")
	}
	if cat.listCalls != 1 {
		t.Errorf("catalog listed %d times, want 1", cat.listCalls)
	}
}

func TestService_LazyInitializeOnSearch(t *testing.T) {
	cat := matchingCatalog(2)
	svc := NewService(cat)

	if _, err := svc.SearchProducts(context.Background(), "chair", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.listCalls != 1 {
		t.Errorf("catalog listed %d times, want 1 (lazy init)", cat.listCalls)
	}
}

func TestService_InitializeFailurePropagates(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("db down")}
	svc := NewService(cat)

	if _, err := svc.Search(context.Background(), "chair", 5); err == nil {
		t.Fatal("expected initialization error")
	}
}

func TestService_DocBodySearchable(t *testing.T) {
	// The query term appears only inside the page's HTML body, which is
	// flattened to text at index-build time.
	cat := &fakeCatalog{docs: []core.DocPage{
		{
			ID:      "d1",
			Title:   "Getting started",
			Summary: "First steps",
			Body:    "<h1>Setup</h1><p>Follow the <strong>assembly</strong> booklet step by step.</p>",
		},
	}}
	svc := NewService(cat)

	results, err := svc.SearchDocumentation(context.Background(), "assembly", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "d1" {
		t.Fatalf("body term not matched: %+v", results)
	}
}

func TestService_RefreshPicksUpNewItems(t *testing.T) {
	cat := matchingCatalog(1)
	svc := NewService(cat)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	cat.products = append(cat.products, core.Product{
		ID: "new", Name: "Lounge Chair Deluxe", Description: "A plush lounge chair", Category: "chairs",
	})
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	results, err := svc.SearchProducts(ctx, "lounge chair", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ID == "new" {
			found = true
		}
	}
	if !found {
		t.Error("refreshed index missing new product")
	}
}
