// Package checkout turns a shopper's cart into a platform order.
package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type cartService interface {
	Get(ctx context.Context, token string) (*cart.Ledger, error)
	Clear(ctx context.Context, token string) (*cart.Ledger, error)
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, token string, input CheckoutInput) (*orders.OrderDTO, error)
}

// CheckoutInput is everything an order needs besides the cart lines.
type CheckoutInput struct {
	CustomerID         int64                `json:"customer_id"`
	Billing            orders.AddressInput  `json:"billing"`
	Shipping           orders.ShippingInput `json:"shipping"`
	PaymentMethod      string               `json:"payment_method"`
	PaymentMethodTitle string               `json:"payment_method_title"`
	TransactionID      string               `json:"transaction_id"`
	SetPaid            bool                 `json:"set_paid"`
}

type service struct {
	carts  cartService
	orders orderCreator
	logg   *logger.Logger
}

// NewService builds the checkout service.
func NewService(carts cartService, creator orderCreator, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if creator == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, orders: creator, logg: logg}, nil
}

// Execute creates the order from the cart's current lines and then empties
// the cart. A failed clear does not undo the order.
func (s *service) Execute(ctx context.Context, token string, input CheckoutInput) (*orders.OrderDTO, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	ctx = s.logg.WithCartToken(ctx, token)

	ledger, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if ledger.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoValidItems, "cart is empty")
	}

	lines := make([]orders.LineItemInput, 0, ledger.Len())
	for _, line := range ledger.Lines() {
		lines = append(lines, orders.LineItemInput{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Quantity:    line.Quantity,
		})
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		CustomerID:         input.CustomerID,
		Billing:            input.Billing,
		Shipping:           input.Shipping,
		LineItems:          lines,
		PaymentMethod:      input.PaymentMethod,
		PaymentMethodTitle: input.PaymentMethodTitle,
		TransactionID:      input.TransactionID,
		SetPaid:            input.SetPaid,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.Clear(ctx, token); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "clearing cart after checkout failed", err)
	}
	return order, nil
}
