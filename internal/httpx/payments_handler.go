package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/go-chi/chi/v5"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, in market.CreatePaymentInput) (market.CreatedPayment, error)
	ListPayments(ctx context.Context, f market.PaymentFilter) ([]market.Payment, error)
	UpdateStatus(ctx context.Context, id int64, in market.PaymentStatusInput) (int64, error)
}

type PaymentsHandler struct {
	Payments PaymentService
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments", h.createPayment)
	r.Get("/payments", h.listPayments)
	r.Patch("/payments/{id}/status", h.updateStatus)
}

func (h *PaymentsHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req market.CreatePaymentInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Payments.CreatePaymentIntent(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *PaymentsHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		f   = market.PaymentFilter{Status: q.Get("status"), Method: q.Get("payment_method")}
		err error
	)
	if f.UserID, err = queryInt64(r, "user_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.OrderID, err = queryInt64(r, "order_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.BookingID, err = queryInt64(r, "booking_id"); err != nil {
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

	out, err := h.Payments.ListPayments(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PaymentsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req market.PaymentStatusInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	n, err := h.Payments.UpdateStatus(ctx, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedBody{Updated: n})
}
