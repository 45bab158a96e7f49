package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in market.PlaceOrderInput) (market.PlacedOrder, error)
	GetOrder(ctx context.Context, id int64) (market.Order, error)
	ListOrders(ctx context.Context, f market.OrderFilter) ([]market.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (int64, error)
}

type OrdersHandler struct {
	Orders OrderService
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req market.PlaceOrderInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Orders.PlaceOrder(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		f   = market.OrderFilter{Status: r.URL.Query().Get("status")}
		err error
	)
	if f.UserID, err = queryInt64(r, "user_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.From, err = queryTime(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Page, err = queryPage(r); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Orders.ListOrders(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	n, err := h.Orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedBody{Updated: n})
}
