package enums

// NotificationType labels the customer-facing event a notification reports.
type NotificationType string

const (
	NotificationOrderCreated   NotificationType = "order_created"
	NotificationOrderCancelled NotificationType = "order_cancelled"
	NotificationOrderShipped   NotificationType = "order_shipped"
	NotificationPaymentReceipt NotificationType = "payment_receipt"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
