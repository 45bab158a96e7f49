package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/greengrove-market/internal/market"
)

type CatalogRepo struct{ db querier }

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const productCols = `id, name, slug, description, price, stock_quantity, category_id, is_active`

func scanProduct(row scanner) (market.Product, error) {
	var p market.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.StockQuantity, &p.CategoryID, &p.IsActive)
	return p, err
}

// LockProduct holds the row until the surrounding transaction ends.
func (r *CatalogRepo) LockProduct(ctx context.Context, id int64) (market.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return market.Product{}, notFound("lock product", err, fmt.Errorf("%w: id %d", market.ErrProductNotFound, id))
	}
	return p, nil
}

func (r *CatalogRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity - $2 WHERE id = $1`, id, qty)
	if err != nil {
		return classify("decrement stock", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: id %d", market.ErrProductNotFound, id)
	}
	return nil
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id int64) (market.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id = $1`, id))
	if err != nil {
		return market.Product{}, notFound("get product", err, market.ErrProductNotFound)
	}
	return p, nil
}

func (r *CatalogRepo) GetProductBySlug(ctx context.Context, slug string) (market.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE slug = $1`, slug))
	if err != nil {
		return market.Product{}, notFound("get product by slug", err, market.ErrProductNotFound)
	}
	return p, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context, f market.ProductFilter) ([]market.Product, error) {
	var w where
	if f.CategoryID != nil {
		w.add("category_id = ?", *f.CategoryID)
	}
	if f.Query != "" {
		w.add(`name ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Query)+"%")
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	sql := `SELECT ` + productCols + ` FROM products` + w.String() + ` ORDER BY id DESC`
	sql += w.page(f.Page)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, classify("list products", err)
	}
	return collect(rows, "list products", scanProduct)
}

func (r *CatalogRepo) UpdateProduct(ctx context.Context, id int64, p market.ProductPatch) (int64, error) {
	var s sets
	if p.Name != nil {
		s.add("name", *p.Name)
	}
	if p.Slug != nil {
		s.add("slug", *p.Slug)
	}
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Price != nil {
		s.add("price", *p.Price)
	}
	if p.StockQuantity != nil {
		s.add("stock_quantity", *p.StockQuantity)
	}
	if p.CategoryID != nil {
		s.add("category_id", *p.CategoryID)
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	return s.exec(ctx, r.db, "products", id)
}

const serviceCols = `id, service_name, description, price, is_active, created_at`

func scanService(row scanner) (market.Service, error) {
	var s market.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.IsActive, &s.CreatedAt)
	return s, err
}

func (r *CatalogRepo) GetService(ctx context.Context, id int64) (market.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceCols+` FROM gardening_services WHERE id = $1`, id))
	if err != nil {
		return market.Service{}, notFound("get service", err, fmt.Errorf("%w: id %d", market.ErrServiceNotFound, id))
	}
	return s, nil
}

func (r *CatalogRepo) ListServices(ctx context.Context, f market.ServiceFilter) ([]market.Service, error) {
	var w where
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	rows, err := r.db.Query(ctx, `SELECT `+serviceCols+` FROM gardening_services`+w.String()+` ORDER BY service_name`, w.args...)
	if err != nil {
		return nil, classify("list services", err)
	}
	return collect(rows, "list services", scanService)
}

func (r *CatalogRepo) UpdateService(ctx context.Context, id int64, p market.ServicePatch) (int64, error) {
	var s sets
	if p.Name != nil {
		s.add("service_name", *p.Name)
	}
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Price != nil {
		s.add("price", *p.Price)
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	return s.exec(ctx, r.db, "gardening_services", id)
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]market.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM product_categories ORDER BY name`)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return collect(rows, "list categories", func(row scanner) (market.Category, error) {
		var c market.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, name string) (market.Category, error) {
	c := market.Category{Name: name}
	err := r.db.QueryRow(ctx, `INSERT INTO product_categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if err != nil {
		return market.Category{}, classify("create category", err)
	}
	return c, nil
}
