package market

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// CatalogService covers the admin and storefront reads of products,
// services and categories.
type CatalogService struct {
	Store Store
	Log   zerolog.Logger
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.Store.Catalog().ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, invalidf("name required")
	}
	c, err := s.Store.Catalog().CreateCategory(ctx, name)
	if err != nil {
		failure(s.Log, err).Str("name", name).Msg("create category")
		return Category{}, err
	}
	return c, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	f.Query = strings.TrimSpace(f.Query)
	return s.Store.Catalog().ListProducts(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.Store.Catalog().GetProduct(ctx, id)
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.Store.Catalog().GetProductBySlug(ctx, slug)
}

// UpdateProduct applies the non-nil fields of p and reports rows updated.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, p ProductPatch) (int64, error) {
	if p.Empty() {
		return 0, invalidf("no fields to update")
	}
	if err := check(p); err != nil {
		return 0, err
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return 0, invalidf("price must not be negative")
		}
		if err := checkMoney("price", *p.Price); err != nil {
			return 0, err
		}
	}
	n, err := s.Store.Catalog().UpdateProduct(ctx, id, p)
	if err != nil {
		failure(s.Log, err).Int64("product_id", id).Msg("update product")
		return 0, err
	}
	if n > 0 {
		s.Log.Info().Int64("product_id", id).Msg("product updated")
	}
	return n, nil
}

func (s *CatalogService) ListServices(ctx context.Context, f ServiceFilter) ([]Service, error) {
	return s.Store.Catalog().ListServices(ctx, f)
}

func (s *CatalogService) GetService(ctx context.Context, id int64) (Service, error) {
	return s.Store.Catalog().GetService(ctx, id)
}

func (s *CatalogService) UpdateService(ctx context.Context, id int64, p ServicePatch) (int64, error) {
	if p.Empty() {
		return 0, invalidf("no fields to update")
	}
	if err := check(p); err != nil {
		return 0, err
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return 0, invalidf("price must not be negative")
		}
		if err := checkMoney("price", *p.Price); err != nil {
			return 0, err
		}
	}
	n, err := s.Store.Catalog().UpdateService(ctx, id, p)
	if err != nil {
		failure(s.Log, err).Int64("service_id", id).Msg("update service")
		return 0, err
	}
	return n, nil
}
