package postgres

import (
	"context"
	"fmt"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/shopspring/decimal"
)

type LedgerRepo struct{ db querier }

const orderCols = `id, user_id, order_date, total_amount, status, delivery_address`

func scanOrder(row scanner) (market.Order, error) {
	var o market.Order
	err := row.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.TotalAmount, &o.Status, &o.DeliveryAddress)
	return o, err
}

func (r *LedgerRepo) CreateOrder(ctx context.Context, o market.Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, order_date, total_amount, status, delivery_address)
		VALUES ($1, now(), $2, $3, $4)
		RETURNING id`,
		o.UserID, o.TotalAmount, string(o.Status), o.DeliveryAddress,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert order", err)
	}
	return id, nil
}

func (r *LedgerRepo) AddOrderItem(ctx context.Context, it market.OrderItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		it.OrderID, it.ProductID, it.Quantity, it.Price,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert order item", err)
	}
	return id, nil
}

func (r *LedgerRepo) SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET total_amount = $2 WHERE id = $1`, orderID, total)
	if err != nil {
		return classify("set order total", err)
	}
	if tag.RowsAffected() != 1 {
		return market.ErrOrderNotFound
	}
	return nil
}

func (r *LedgerRepo) GetOrder(ctx context.Context, id int64) (market.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return market.Order{}, notFound("get order", err, fmt.Errorf("%w: id %d", market.ErrOrderNotFound, id))
	}
	return o, nil
}

func (r *LedgerRepo) ListOrderItems(ctx context.Context, orderID int64) ([]market.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, classify("list order items", err)
	}
	return collect(rows, "list order items", func(row scanner) (market.OrderItem, error) {
		var it market.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price)
		return it, err
	})
}

func (r *LedgerRepo) ListOrders(ctx context.Context, f market.OrderFilter) ([]market.Order, error) {
	var w where
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.From != nil {
		w.add("order_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("order_date <= ?", *f.To)
	}
	sql := `SELECT ` + orderCols + ` FROM orders` + w.String() + ` ORDER BY order_date DESC, id DESC`
	sql += w.page(f.Page)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, classify("list orders", err)
	}
	return collect(rows, "list orders", scanOrder)
}

func (r *LedgerRepo) UpdateOrderStatus(ctx context.Context, id int64, st market.OrderStatus) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(st))
	if err != nil {
		return 0, classify("update order status", err)
	}
	return tag.RowsAffected(), nil
}

const bookingCols = `b.id, b.user_id, b.service_id, s.service_name, b.booking_date, b.status, b.notes, b.address, b.created_at`

func scanBooking(row scanner) (market.Booking, error) {
	var b market.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceID, &b.ServiceName, &b.BookingDate, &b.Status, &b.Notes, &b.Address, &b.CreatedAt)
	return b, err
}

func (r *LedgerRepo) CreateBooking(ctx context.Context, b market.Booking) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO service_bookings (user_id, service_id, booking_date, status, notes, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		b.UserID, b.ServiceID, b.BookingDate, string(b.Status), b.Notes, b.Address,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert booking", err)
	}
	return id, nil
}

func (r *LedgerRepo) GetBooking(ctx context.Context, id int64) (market.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `
		SELECT `+bookingCols+`
		FROM service_bookings b JOIN gardening_services s ON s.id = b.service_id
		WHERE b.id = $1`, id))
	if err != nil {
		return market.Booking{}, notFound("get booking", err, fmt.Errorf("%w: id %d", market.ErrBookingNotFound, id))
	}
	return b, nil
}

func (r *LedgerRepo) ListBookings(ctx context.Context, f market.BookingFilter) ([]market.Booking, error) {
	var w where
	if f.UserID != nil {
		w.add("b.user_id = ?", *f.UserID)
	}
	if f.ServiceID != nil {
		w.add("b.service_id = ?", *f.ServiceID)
	}
	if f.Status != "" {
		w.add("b.status = ?", f.Status)
	}
	if f.From != nil {
		w.add("b.booking_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("b.booking_date <= ?", *f.To)
	}
	sql := `SELECT ` + bookingCols + ` FROM service_bookings b JOIN gardening_services s ON s.id = b.service_id` +
		w.String() + ` ORDER BY b.booking_date DESC, b.id DESC`
	sql += w.page(f.Page)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	return collect(rows, "list bookings", scanBooking)
}

func (r *LedgerRepo) UpdateBookingStatus(ctx context.Context, id int64, st market.BookingStatus) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE service_bookings SET status = $2 WHERE id = $1`, id, string(st))
	if err != nil {
		return 0, classify("update booking status", err)
	}
	return tag.RowsAffected(), nil
}

const paymentCols = `id, user_id, order_id, booking_id, amount, payment_date, payment_method, status, provider_ref, currency`

func scanPayment(row scanner) (market.Payment, error) {
	var p market.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.OrderID, &p.BookingID, &p.Amount, &p.PaymentDate, &p.Method, &p.Status, &p.ProviderRef, &p.Currency)
	return p, err
}

func (r *LedgerRepo) CreatePayment(ctx context.Context, p market.Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (user_id, order_id, booking_id, amount, payment_date, payment_method, status, provider_ref, currency)
		VALUES ($1, $2, $3, $4, now(), $5, $6, $7, $8)
		RETURNING id`,
		p.UserID, p.OrderID, p.BookingID, p.Amount, string(p.Method), string(p.Status), p.ProviderRef, p.Currency,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert payment", err)
	}
	return id, nil
}

func (r *LedgerRepo) GetPayment(ctx context.Context, id int64) (market.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return market.Payment{}, notFound("get payment", err, fmt.Errorf("%w: id %d", market.ErrPaymentNotFound, id))
	}
	return p, nil
}

func (r *LedgerRepo) LockPayment(ctx context.Context, id int64) (market.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return market.Payment{}, notFound("lock payment", err, fmt.Errorf("%w: id %d", market.ErrPaymentNotFound, id))
	}
	return p, nil
}

func (r *LedgerRepo) ListPayments(ctx context.Context, f market.PaymentFilter) ([]market.Payment, error) {
	var w where
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.OrderID != nil {
		w.add("order_id = ?", *f.OrderID)
	}
	if f.BookingID != nil {
		w.add("booking_id = ?", *f.BookingID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Method != "" {
		w.add("payment_method = ?", f.Method)
	}
	if f.From != nil {
		w.add("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("payment_date <= ?", *f.To)
	}
	sql := `SELECT ` + paymentCols + ` FROM payments` + w.String() + ` ORDER BY payment_date DESC, id DESC`
	sql += w.page(f.Page)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, classify("list payments", err)
	}
	return collect(rows, "list payments", scanPayment)
}

// UpdatePaymentStatus keeps the stored provider_ref when ref is nil.
func (r *LedgerRepo) UpdatePaymentStatus(ctx context.Context, id int64, st market.PaymentStatus, ref *string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE payments SET status = $2, provider_ref = COALESCE($3, provider_ref) WHERE id = $1`, id, string(st), ref)
	if err != nil {
		return 0, classify("update payment status", err)
	}
	return tag.RowsAffected(), nil
}
