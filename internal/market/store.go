package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogStore reads and writes products, services and categories.
type CatalogStore interface {
	// LockProduct reads a product row and holds an exclusive lock on it
	// until the enclosing transaction ends. Only meaningful inside WithinTx.
	LockProduct(ctx context.Context, id int64) (Product, error)
	DecrementStock(ctx context.Context, id int64, qty int) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, p ProductPatch) (int64, error)

	GetService(ctx context.Context, id int64) (Service, error)
	ListServices(ctx context.Context, f ServiceFilter) ([]Service, error)
	UpdateService(ctx context.Context, id int64, p ServicePatch) (int64, error)

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
}

// LedgerStore holds orders, bookings and payments.
type LedgerStore interface {
	CreateOrder(ctx context.Context, o Order) (int64, error)
	AddOrderItem(ctx context.Context, it OrderItem) (int64, error)
	SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, st OrderStatus) (int64, error)

	CreateBooking(ctx context.Context, b Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, st BookingStatus) (int64, error)

	CreatePayment(ctx context.Context, p Payment) (int64, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	// LockPayment is GetPayment plus a row lock held until the transaction ends.
	LockPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, st PaymentStatus, providerRef *string) (int64, error)
}

type Tx interface {
	Catalog() CatalogStore
	Ledger() LedgerStore
}

// Store runs fn atomically: an error from fn rolls back every write it made.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// NewPage clamps page >= 1 and 1 <= limit <= 100; zero values take defaults.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	limit = max(1, min(maxPageLimit, limit))
	return Page{Limit: limit, Offset: (page - 1) * limit}
}

type ProductFilter struct {
	CategoryID *int64
	Query      string
	Active     *bool
	Page       Page
}

type ProductPatch struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	IsActive      *bool            `json:"is_active"`
	CategoryID    *int64           `json:"category_id" validate:"omitempty,gt=0"`
	Slug          *string          `json:"slug" validate:"omitempty,min=1,max=200"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.StockQuantity == nil &&
		p.IsActive == nil && p.CategoryID == nil && p.Slug == nil
}

type ServiceFilter struct {
	Active *bool
}

type ServicePatch struct {
	Name        *string          `json:"service_name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

func (p ServicePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.IsActive == nil
}

type OrderFilter struct {
	UserID *int64
	Status string
	From   *time.Time
	To     *time.Time
	Page   Page
}

type BookingFilter struct {
	UserID    *int64
	ServiceID *int64
	Status    string
	From      *time.Time
	To        *time.Time
	Page      Page
}

type PaymentFilter struct {
	UserID    *int64
	OrderID   *int64
	BookingID *int64
	Status    string
	Method    string
	From      *time.Time
	To        *time.Time
	Page      Page
}
