package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderSvcMock struct{ mock.Mock }

func (m *orderSvcMock) PlaceOrder(ctx context.Context, in market.PlaceOrderInput) (market.PlacedOrder, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(market.PlacedOrder), args.Error(1)
}

func (m *orderSvcMock) GetOrder(ctx context.Context, id int64) (market.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(market.Order), args.Error(1)
}

func (m *orderSvcMock) ListOrders(ctx context.Context, f market.OrderFilter) ([]market.Order, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]market.Order), args.Error(1)
}

func (m *orderSvcMock) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

type bookingSvcMock struct{ mock.Mock }

func (m *bookingSvcMock) CreateBooking(ctx context.Context, in market.CreateBookingInput) (market.CreatedBooking, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(market.CreatedBooking), args.Error(1)
}

func (m *bookingSvcMock) ListBookings(ctx context.Context, f market.BookingFilter) ([]market.Booking, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]market.Booking), args.Error(1)
}

func (m *bookingSvcMock) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

type paymentSvcMock struct{ mock.Mock }

func (m *paymentSvcMock) CreatePaymentIntent(ctx context.Context, in market.CreatePaymentInput) (market.CreatedPayment, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(market.CreatedPayment), args.Error(1)
}

func (m *paymentSvcMock) ListPayments(ctx context.Context, f market.PaymentFilter) ([]market.Payment, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]market.Payment), args.Error(1)
}

func (m *paymentSvcMock) UpdateStatus(ctx context.Context, id int64, in market.PaymentStatusInput) (int64, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(int64), args.Error(1)
}

type catalogSvcMock struct{ mock.Mock }

func (m *catalogSvcMock) ListCategories(ctx context.Context) ([]market.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]market.Category), args.Error(1)
}

func (m *catalogSvcMock) CreateCategory(ctx context.Context, name string) (market.Category, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(market.Category), args.Error(1)
}

func (m *catalogSvcMock) ListProducts(ctx context.Context, f market.ProductFilter) ([]market.Product, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]market.Product), args.Error(1)
}

func (m *catalogSvcMock) GetProduct(ctx context.Context, id int64) (market.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(market.Product), args.Error(1)
}

func (m *catalogSvcMock) GetProductBySlug(ctx context.Context, slug string) (market.Product, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(market.Product), args.Error(1)
}

func (m *catalogSvcMock) UpdateProduct(ctx context.Context, id int64, p market.ProductPatch) (int64, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *catalogSvcMock) ListServices(ctx context.Context, f market.ServiceFilter) ([]market.Service, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]market.Service), args.Error(1)
}

func (m *catalogSvcMock) GetService(ctx context.Context, id int64) (market.Service, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(market.Service), args.Error(1)
}

func (m *catalogSvcMock) UpdateService(ctx context.Context, id int64, p market.ServicePatch) (int64, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(int64), args.Error(1)
}

type pingerMock struct{ mock.Mock }

func (m *pingerMock) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }

type registrar interface{ Register(r chi.Router) }

func newTestRouter(hs ...registrar) *chi.Mux {
	r := NewRouter(zerolog.Nop())
	for _, h := range hs {
		h.Register(r)
	}
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
