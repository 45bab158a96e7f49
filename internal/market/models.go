package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    *int64          `json:"category_id"`
	IsActive      bool            `json:"is_active"`
}

// Service is a bookable gardening service.
type Service struct {
	ID          int64           `json:"id"`
	Name        string          `json:"service_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	DeliveryAddress *string         `json:"delivery_address"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem keeps the unit price captured when the order was placed.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// LineTotal is unit price times quantity.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	ServiceID   int64         `json:"service_id"`
	ServiceName string        `json:"service_name,omitempty"`
	BookingDate time.Time     `json:"booking_date"`
	Status      BookingStatus `json:"status"`
	Notes       *string       `json:"notes"`
	Address     *string       `json:"address"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Payment struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	OrderID     *int64          `json:"order_id"`
	BookingID   *int64          `json:"booking_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      PaymentMethod   `json:"payment_method"`
	Status      PaymentStatus   `json:"status"`
	ProviderRef *string         `json:"provider_ref"`
	Currency    string          `json:"currency"`
}
