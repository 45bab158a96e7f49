package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced          = "OrderPlaced"
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventBookingCreated       = "BookingCreated"
	EventBookingStatusChanged = "BookingStatusChanged"
	EventPaymentCreated       = "PaymentCreated"
	EventPaymentStatusChanged = "PaymentStatusChanged"
	EventPaymentConfirmed     = "PaymentConfirmed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Publisher emits events after the owning transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType, key string, payload any) error
}

type OrderPlacedPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Items       []ItemInput     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

type BookingCreatedPayload struct {
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	ServiceID   int64     `json:"service_id"`
	BookingDate time.Time `json:"booking_date"`
}

type BookingStatusChangedPayload struct {
	BookingID int64         `json:"booking_id"`
	Status    BookingStatus `json:"status"`
}

type PaymentCreatedPayload struct {
	PaymentID int64           `json:"payment_id"`
	UserID    int64           `json:"user_id"`
	OrderID   *int64          `json:"order_id,omitempty"`
	BookingID *int64          `json:"booking_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"payment_method"`
	Currency  string          `json:"currency"`
}

type PaymentStatusChangedPayload struct {
	PaymentID   int64         `json:"payment_id"`
	Status      PaymentStatus `json:"status"`
	ProviderRef *string       `json:"provider_ref,omitempty"`
}

// PaymentConfirmedPayload is relayed from the payment provider callback.
type PaymentConfirmedPayload struct {
	PaymentID   int64   `json:"payment_id"`
	Status      string  `json:"status"`
	ProviderRef *string `json:"provider_ref,omitempty"`
}
