package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]market.Category, error)
	CreateCategory(ctx context.Context, name string) (market.Category, error)
	ListProducts(ctx context.Context, f market.ProductFilter) ([]market.Product, error)
	GetProduct(ctx context.Context, id int64) (market.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (market.Product, error)
	UpdateProduct(ctx context.Context, id int64, p market.ProductPatch) (int64, error)
	ListServices(ctx context.Context, f market.ServiceFilter) ([]market.Service, error)
	GetService(ctx context.Context, id int64) (market.Service, error)
	UpdateService(ctx context.Context, id int64, p market.ServicePatch) (int64, error)
}

type CatalogHandler struct {
	Catalog CatalogService
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)

	r.Get("/products", h.listProducts)
	r.Get("/products/id/{id}", h.getProduct)
	r.Get("/products/{slug}", h.getProductBySlug)
	r.Patch("/products/{id}", h.updateProduct)

	r.Get("/services", h.listServices)
	r.Get("/services/{id}", h.getService)
	r.Patch("/services/{id}", h.updateService)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	c, err := h.Catalog.CreateCategory(ctx, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		f   = market.ProductFilter{Query: r.URL.Query().Get("q")}
		err error
	)
	if f.CategoryID, err = queryInt64(r, "category_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Active, err = queryBool(r, "active"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Page, err = queryPage(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Catalog.ListProducts(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) getProductBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	p, err := h.Catalog.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch market.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	n, err := h.Catalog.UpdateProduct(ctx, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedBody{Updated: n})
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Catalog.ListServices(ctx, market.ServiceFilter{Active: active})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) getService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	s, err := h.Catalog.GetService(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *CatalogHandler) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch market.ServicePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	n, err := h.Catalog.UpdateService(ctx, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedBody{Updated: n})
}
