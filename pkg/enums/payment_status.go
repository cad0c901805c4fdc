package enums

import "fmt"

// PaymentStatus is the seller-facing payment summary derived from an order.
type PaymentStatus string

const (
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusOnHold     PaymentStatus = "on_hold"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusPending    PaymentStatus = "pending"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPaid,
	PaymentStatusProcessing,
	PaymentStatusOnHold,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
	PaymentStatusPending,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// DerivePaymentStatus maps an order status and paid marker onto a PaymentStatus.
func DerivePaymentStatus(status OrderStatus, paid bool) PaymentStatus {
	switch status {
	case OrderStatusCompleted:
		return PaymentStatusPaid
	case OrderStatusProcessing:
		if paid {
			return PaymentStatusPaid
		}
		return PaymentStatusProcessing
	case OrderStatusOnHold:
		return PaymentStatusOnHold
	case OrderStatusFailed:
		return PaymentStatusFailed
	case OrderStatusRefunded:
		return PaymentStatusRefunded
	case OrderStatusCancelled, OrderStatusTrash:
		return PaymentStatusCancelled
	default:
		if paid {
			return PaymentStatusPaid
		}
		return PaymentStatusPending
	}
}
