package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/shopclerk/internal/core"
)

// CatalogRepo serves the read-only storefront catalog: active products,
// active categories, and documentation pages.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) ListActiveProducts(ctx context.Context) ([]core.Product, error) {
	query := `SELECT id, name, description, price, category FROM products WHERE active = 1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *CatalogRepo) ListActiveCategories(ctx context.Context) ([]core.Category, error) {
	query := `SELECT id, name, description, slug FROM categories WHERE active = 1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CatalogRepo) ListDocPages(ctx context.Context) ([]core.DocPage, error) {
	query := `SELECT id, title, summary, body, tags FROM doc_pages ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query doc pages: %w", err)
	}
	defer rows.Close()

	var pages []core.DocPage
	for rows.Next() {
		var page core.DocPage
		var tags string
		if err := rows.Scan(&page.ID, &page.Title, &page.Summary, &page.Body, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan doc page: %w", err)
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &page.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal doc tags: %w", err)
			}
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}
