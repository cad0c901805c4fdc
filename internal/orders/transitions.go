package orders

import (
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

// forwardTransitions lists the non-cancel moves an order may make.
// Cancellation is governed by OrderStatus.Cancellable.
var forwardTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusOnHold, enums.OrderStatusCompleted, enums.OrderStatusFailed},
	enums.OrderStatusOnHold:     {enums.OrderStatusProcessing, enums.OrderStatusCompleted, enums.OrderStatusFailed},
	enums.OrderStatusProcessing: {enums.OrderStatusCompleted, enums.OrderStatusOnHold, enums.OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	if to == enums.OrderStatusCancelled {
		return from.Cancellable()
	}
	for _, allowed := range forwardTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionDetails accompanies INVALID_STATE_TRANSITION errors.
type TransitionDetails struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}

func transitionError(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidStateTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(TransitionDetails{From: from, To: to})
}
