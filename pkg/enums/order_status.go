package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks the lifecycle of an order on the commerce platform.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusTrash      OrderStatus = "trash"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusOnHold,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusFailed,
	OrderStatusTrash,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may be cancelled.
func (o OrderStatus) Cancellable() bool {
	switch o {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (o OrderStatus) Terminal() bool {
	switch o {
	case OrderStatusCompleted, OrderStatusRefunded, OrderStatusFailed, OrderStatusTrash:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus, tolerating "wc-" prefixes and underscores.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "wc-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "canceled" {
		normalized = string(OrderStatusCancelled)
	}
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
