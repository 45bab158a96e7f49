package market

import "fmt"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q is not an order status", ErrInvalidStatus, s)
	}
	return st, nil
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q is not a booking status", ErrInvalidStatus, s)
	}
	return st, nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}

// Terminal payment states only accept themselves again.
var paymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPending: true, PaymentSuccess: true, PaymentFailed: true},
	PaymentSuccess: {PaymentSuccess: true},
	PaymentFailed:  {PaymentFailed: true},
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return paymentNext[s][to]
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q is not a payment status", ErrInvalidStatus, s)
	}
	return st, nil
}

type PaymentMethod string

const (
	MethodMpesa PaymentMethod = "Mpesa"
	MethodCard  PaymentMethod = "Card"
	MethodCash  PaymentMethod = "Cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMpesa, MethodCard, MethodCash:
		return true
	}
	return false
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
	return m, nil
}
