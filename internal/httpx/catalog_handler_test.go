package httpx

import (
	"net/http"
	"testing"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCatalogRoutes(t *testing.T) {
	svc := &catalogSvcMock{}
	r := newTestRouter(&CatalogHandler{Catalog: svc})

	svc.On("GetProduct", mock.Anything, int64(2)).Return(market.Product{ID: 2, Slug: "garden-hose"}, nil)
	svc.On("GetProductBySlug", mock.Anything, "garden-hose").Return(market.Product{ID: 2, Slug: "garden-hose"}, nil)
	svc.On("GetProductBySlug", mock.Anything, "nope").Return(market.Product{}, market.ErrProductNotFound)
	svc.On("ListProducts", mock.Anything, mock.MatchedBy(func(f market.ProductFilter) bool {
		return f.Query == "hose" && f.Active != nil && *f.Active && f.CategoryID == nil
	})).Return([]market.Product{{ID: 2}}, nil)
	svc.On("ListServices", mock.Anything, market.ServiceFilter{}).Return([]market.Service{{ID: 1, Name: "Lawn mowing"}}, nil)
	svc.On("CreateCategory", mock.Anything, "Seeds").Return(market.Category{ID: 4, Name: "Seeds"}, nil)

	rec := do(t, r, http.MethodGet, "/products/id/2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "garden-hose", decode[market.Product](t, rec).Slug)

	rec = do(t, r, http.MethodGet, "/products/garden-hose", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/products/nope", nil).Code)

	rec = do(t, r, http.MethodGet, "/products?q=hose&active=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/products?active=maybe", nil).Code)

	rec = do(t, r, http.MethodGet, "/services", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lawn mowing", decode[[]market.Service](t, rec)[0].Name)

	rec = do(t, r, http.MethodPost, "/categories", `{"name":"Seeds"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	svc.AssertExpectations(t)
}

func TestUpdateProduct(t *testing.T) {
	svc := &catalogSvcMock{}
	r := newTestRouter(&CatalogHandler{Catalog: svc})
	svc.On("UpdateProduct", mock.Anything, int64(2), mock.MatchedBy(func(p market.ProductPatch) bool {
		return p.Price != nil && p.Price.Equal(decimal.RequireFromString("199.99")) && p.StockQuantity != nil && *p.StockQuantity == 4 && p.Name == nil
	})).Return(int64(1), nil)

	rec := do(t, r, http.MethodPatch, "/products/2", `{"price":199.99,"stock_quantity":4}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[updatedBody](t, rec).Updated)
	svc.AssertExpectations(t)
}
