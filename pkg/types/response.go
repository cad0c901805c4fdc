package types

// SuccessEnvelope wraps every successful response.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope carries a machine-checkable code next to the human message.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// OrderList is the shape of every bulk order query.
type OrderList[T any] struct {
	Orders []T `json:"orders"`
	Count  int `json:"count"`
}

// NewOrderList never serializes a nil slice.
func NewOrderList[T any](orders []T) OrderList[T] {
	if orders == nil {
		orders = []T{}
	}
	return OrderList[T]{Orders: orders, Count: len(orders)}
}
