package market

import "strconv"

const (
	TopicOrders               = "market.orders"
	TopicBookings             = "market.bookings"
	TopicPayments             = "market.payments"
	TopicPaymentConfirmations = "market.payment.confirmations"
)

// PartitionKey keeps every event of one aggregate on one partition, in order.
func PartitionKey(id int64) string { return strconv.FormatInt(id, 10) }
