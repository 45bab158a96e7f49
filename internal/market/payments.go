package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "KES"

type CreatePaymentInput struct {
	UserID      int64            `json:"user_id" validate:"gt=0"`
	OrderID     *int64           `json:"order_id" validate:"omitempty,gt=0"`
	BookingID   *int64           `json:"booking_id" validate:"omitempty,gt=0"`
	Amount      *decimal.Decimal `json:"amount"`
	Method      string           `json:"payment_method"`
	ProviderRef *string          `json:"provider_ref" validate:"omitempty,max=128"`
	Currency    string           `json:"currency" validate:"omitempty,len=3,alpha"`
}

type CreatedPayment struct {
	ID       int64           `json:"id"`
	Status   PaymentStatus   `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type PaymentStatusInput struct {
	Status      string  `json:"status"`
	ProviderRef *string `json:"provider_ref" validate:"omitempty,max=128"`
}

type PaymentService struct {
	Store           Store
	Events          Publisher
	Log             zerolog.Logger
	TxTimeout       time.Duration
	DefaultCurrency string
}

// CreatePaymentIntent records a pending payment. When an order or booking is
// referenced the amount is taken from it; a differing caller amount is rejected.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, in CreatePaymentInput) (CreatedPayment, error) {
	method, err := ParsePaymentMethod(in.Method)
	if err != nil {
		return CreatedPayment{}, err
	}
	if err := check(in); err != nil {
		return CreatedPayment{}, err
	}
	if in.OrderID != nil && in.BookingID != nil {
		return CreatedPayment{}, invalidf("set order_id or booking_id, not both")
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return CreatedPayment{}, invalidf("amount must be positive")
		}
		if err := checkMoney("amount", *in.Amount); err != nil {
			return CreatedPayment{}, err
		}
	}
	if in.OrderID == nil && in.BookingID == nil && in.Amount == nil {
		return CreatedPayment{}, invalidf("amount is required without order_id or booking_id")
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = s.currency()
	}

	txCtx, cancel := withTimeout(ctx, s.TxTimeout)
	defer cancel()

	var out CreatedPayment
	err = s.Store.WithinTx(txCtx, func(tx Tx) error {
		amount, err := s.resolveAmount(txCtx, tx, in)
		if err != nil {
			return err
		}
		id, err := tx.Ledger().CreatePayment(txCtx, Payment{
			UserID:      in.UserID,
			OrderID:     in.OrderID,
			BookingID:   in.BookingID,
			Amount:      amount,
			Method:      method,
			Status:      PaymentPending,
			ProviderRef: optional(in.ProviderRef),
			Currency:    currency,
		})
		if err != nil {
			return err
		}
		out = CreatedPayment{ID: id, Status: PaymentPending, Amount: amount, Currency: currency}
		return nil
	})
	if err != nil {
		failure(s.Log, err).Int64("user_id", in.UserID).Msg("create payment intent")
		return CreatedPayment{}, err
	}

	s.Log.Info().Int64("payment_id", out.ID).Str("amount", out.Amount.String()).Str("method", string(method)).Msg("payment intent created")
	publish(ctx, s.Log, s.Events, TopicPayments, EventPaymentCreated, out.ID, PaymentCreatedPayload{
		PaymentID: out.ID,
		UserID:    in.UserID,
		OrderID:   in.OrderID,
		BookingID: in.BookingID,
		Amount:    out.Amount,
		Method:    method,
		Currency:  currency,
	})
	return out, nil
}

func (s *PaymentService) resolveAmount(ctx context.Context, tx Tx, in CreatePaymentInput) (decimal.Decimal, error) {
	var derived decimal.Decimal
	switch {
	case in.OrderID != nil:
		o, err := tx.Ledger().GetOrder(ctx, *in.OrderID)
		if err != nil {
			return decimal.Zero, err
		}
		derived = o.TotalAmount
	case in.BookingID != nil:
		b, err := tx.Ledger().GetBooking(ctx, *in.BookingID)
		if err != nil {
			return decimal.Zero, err
		}
		svc, err := tx.Catalog().GetService(ctx, b.ServiceID)
		if err != nil {
			return decimal.Zero, err
		}
		derived = svc.Price
	default:
		return *in.Amount, nil
	}
	if in.Amount != nil && !in.Amount.Equal(derived) {
		return decimal.Zero, fmt.Errorf("%w: got %s, expected %s", ErrAmountMismatch, in.Amount, derived)
	}
	return derived, nil
}

func (s *PaymentService) currency() string {
	if s.DefaultCurrency != "" {
		return strings.ToUpper(s.DefaultCurrency)
	}
	return DefaultCurrency
}

// UpdateStatus moves a pending payment to success or failed. Terminal states
// can be re-applied (to record a provider reference) but never left.
// An unknown payment id reports zero rows updated.
func (s *PaymentService) UpdateStatus(ctx context.Context, id int64, in PaymentStatusInput) (int64, error) {
	st, err := ParsePaymentStatus(in.Status)
	if err != nil {
		return 0, err
	}
	if err := check(in); err != nil {
		return 0, err
	}
	ref := optional(in.ProviderRef)

	txCtx, cancel := withTimeout(ctx, s.TxTimeout)
	defer cancel()

	var (
		n       int64
		changed bool
	)
	err = s.Store.WithinTx(txCtx, func(tx Tx) error {
		cur, err := tx.Ledger().LockPayment(txCtx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransition(st) {
			return fmt.Errorf("%w: payment %d is %s, cannot become %s", ErrIllegalTransition, id, cur.Status, st)
		}
		if cur.Status == st && (ref == nil || (cur.ProviderRef != nil && *cur.ProviderRef == *ref)) {
			return nil
		}
		changed = cur.Status != st
		n, err = tx.Ledger().UpdatePaymentStatus(txCtx, id, st, ref)
		return err
	})
	if errors.Is(err, ErrPaymentNotFound) {
		return 0, nil
	}
	if err != nil {
		failure(s.Log, err).Int64("payment_id", id).Str("status", string(st)).Msg("update payment status")
		return 0, err
	}

	if changed && n > 0 {
		s.Log.Info().Int64("payment_id", id).Str("status", string(st)).Msg("payment status updated")
		publish(ctx, s.Log, s.Events, TopicPayments, EventPaymentStatusChanged, id, PaymentStatusChangedPayload{
			PaymentID:   id,
			Status:      st,
			ProviderRef: ref,
		})
	}
	return n, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	if f.Status != "" {
		if _, err := ParsePaymentStatus(f.Status); err != nil {
			return nil, err
		}
	}
	if f.Method != "" {
		if _, err := ParsePaymentMethod(f.Method); err != nil {
			return nil, err
		}
	}
	return s.Store.Ledger().ListPayments(ctx, f)
}
