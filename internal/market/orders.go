package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderCache holds assembled order details keyed by order id.
// OrderCache holds order details between reads. Invalidate bumps the
// entry's version and Set only stores o while the version still equals the
// one read before loading it, so a read racing a status change is dropped.
type OrderCache interface {
	Get(ctx context.Context, id int64) (Order, bool, error)
	Version(ctx context.Context, id int64) (int64, error)
	Set(ctx context.Context, o Order, version int64) error
	Invalidate(ctx context.Context, id int64) error
}

type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type PlaceOrderInput struct {
	UserID          int64       `json:"user_id" validate:"gt=0"`
	DeliveryAddress *string     `json:"delivery_address" validate:"omitempty,max=500"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
}

type PlacedOrder struct {
	ID          int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
}

type OrderService struct {
	Store     Store
	Events    Publisher
	Cache     OrderCache
	Log       zerolog.Logger
	TxTimeout time.Duration
}

// PlaceOrder reserves stock and records the order and its lines in one
// transaction. Totals come from the locked product rows, never the caller.
// Products are locked in the order items are given; callers placing
// multi-item orders concurrently should sort items by product id.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlacedOrder, error) {
	if err := check(in); err != nil {
		return PlacedOrder{}, err
	}
	txCtx, cancel := withTimeout(ctx, s.TxTimeout)
	defer cancel()

	var out PlacedOrder
	err := s.Store.WithinTx(txCtx, func(tx Tx) error {
		orderID, err := tx.Ledger().CreateOrder(txCtx, Order{
			UserID:          in.UserID,
			Status:          OrderPending,
			TotalAmount:     decimal.Zero,
			DeliveryAddress: optional(in.DeliveryAddress),
		})
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, it := range in.Items {
			p, err := tx.Catalog().LockProduct(txCtx, it.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return fmt.Errorf("%w: product %d is inactive", ErrProductNotFound, p.ID)
			}
			if p.StockQuantity < it.Quantity {
				return fmt.Errorf("%w: product %d has %d, requested %d",
					ErrInsufficientStock, p.ID, p.StockQuantity, it.Quantity)
			}

			line := OrderItem{OrderID: orderID, ProductID: p.ID, Quantity: it.Quantity, Price: p.Price}
			total = total.Add(line.LineTotal())
			if _, err := tx.Ledger().AddOrderItem(txCtx, line); err != nil {
				return err
			}
			if err := tx.Catalog().DecrementStock(txCtx, p.ID, it.Quantity); err != nil {
				return err
			}
		}

		if err := checkMoney("total_amount", total); err != nil {
			return err
		}
		if err := tx.Ledger().SetOrderTotal(txCtx, orderID, total); err != nil {
			return err
		}
		out = PlacedOrder{ID: orderID, TotalAmount: total, Status: OrderPending}
		return nil
	})
	if err != nil {
		failure(s.Log, err).Int64("user_id", in.UserID).Int("items", len(in.Items)).Msg("place order rolled back")
		return PlacedOrder{}, err
	}

	s.Log.Info().Int64("order_id", out.ID).Int64("user_id", in.UserID).Str("total", out.TotalAmount.String()).Msg("order placed")
	publish(ctx, s.Log, s.Events, TopicOrders, EventOrderPlaced, out.ID, OrderPlacedPayload{
		OrderID:     out.ID,
		UserID:      in.UserID,
		Items:       in.Items,
		TotalAmount: out.TotalAmount,
	})
	return out, nil
}

// GetOrder returns the order with its line items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, invalidf("order id must be positive")
	}
	cacheable := false
	var version int64
	if s.Cache != nil {
		o, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.Log.Warn().Err(err).Int64("order_id", id).Msg("order cache read")
		} else if ok {
			return o, nil
		}
		if version, err = s.Cache.Version(ctx, id); err != nil {
			s.Log.Warn().Err(err).Int64("order_id", id).Msg("order cache version")
		} else {
			cacheable = true
		}
	}

	o, err := s.Store.Ledger().GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	items, err := s.Store.Ledger().ListOrderItems(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Items = items

	if cacheable {
		if err := s.Cache.Set(ctx, o, version); err != nil {
			s.Log.Warn().Err(err).Int64("order_id", id).Msg("order cache write")
		}
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	if f.Status != "" {
		if _, err := ParseOrderStatus(f.Status); err != nil {
			return nil, err
		}
	}
	return s.Store.Ledger().ListOrders(ctx, f)
}

// UpdateStatus accepts any enumerated order status; it reports rows updated.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	st, err := ParseOrderStatus(status)
	if err != nil {
		return 0, err
	}
	n, err := s.Store.Ledger().UpdateOrderStatus(ctx, id, st)
	if err != nil {
		failure(s.Log, err).Int64("order_id", id).Msg("update order status")
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, id); err != nil {
			s.Log.Warn().Err(err).Int64("order_id", id).Msg("order cache invalidate")
		}
	}
	s.Log.Info().Int64("order_id", id).Str("status", string(st)).Msg("order status updated")
	publish(ctx, s.Log, s.Events, TopicOrders, EventOrderStatusChanged, id, OrderStatusChangedPayload{OrderID: id, Status: st})
	return n, nil
}
