package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/go-chi/chi/v5"
)

type BookingService interface {
	CreateBooking(ctx context.Context, in market.CreateBookingInput) (market.CreatedBooking, error)
	ListBookings(ctx context.Context, f market.BookingFilter) ([]market.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string) (int64, error)
}

type BookingsHandler struct {
	Bookings BookingService
}

// createBookingReq takes booking_date as text so datetime-local values work.
type createBookingReq struct {
	UserID      int64   `json:"user_id"`
	ServiceID   int64   `json:"service_id"`
	BookingDate string  `json:"booking_date"`
	Notes       *string `json:"notes"`
	Address     *string `json:"address"`
}

func (h *BookingsHandler) Register(r chi.Router) {
	r.Post("/bookings", h.createBooking)
	r.Get("/bookings", h.listBookings)
	r.Patch("/bookings/{id}/status", h.updateStatus)
}

func (h *BookingsHandler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var date time.Time
	if req.BookingDate != "" {
		t, err := parseTime(req.BookingDate)
		if err != nil {
			writeError(w, r, badRequest("booking_date: %v", err))
			return
		}
		date = t
	}

	ctx, cancel := withTimeout(r)
	defer cancel()

	out, err := h.Bookings.CreateBooking(ctx, market.CreateBookingInput{
		UserID:      req.UserID,
		ServiceID:   req.ServiceID,
		BookingDate: date,
		Notes:       req.Notes,
		Address:     req.Address,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *BookingsHandler) listBookings(w http.ResponseWriter, r *http.Request) {
	var (
		f   = market.BookingFilter{Status: r.URL.Query().Get("status")}
		err error
	)
	if f.UserID, err = queryInt64(r, "user_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ServiceID, err = queryInt64(r, "service_id"); err != nil {
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

	out, err := h.Bookings.ListBookings(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BookingsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
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

	n, err := h.Bookings.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedBody{Updated: n})
}
