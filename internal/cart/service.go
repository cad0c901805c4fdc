package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type cartReader interface {
	Cart(ctx context.Context, token string) (*commerce.Cart, error)
	ClearCart(ctx context.Context, token string) (*commerce.Cart, error)
}

// Service exposes the shopper's cart. Every call names its cart by token.
type Service interface {
	Get(ctx context.Context, token string) (*Ledger, error)
	AddItem(ctx context.Context, token string, input AddItemInput) (*Ledger, error)
	UpdateItem(ctx context.Context, token, itemKey string, quantity int) (*Ledger, error)
	IncrementItem(ctx context.Context, token, itemKey string, by int) (*Ledger, error)
	RemoveItem(ctx context.Context, token, itemKey string) (*Ledger, error)
	Clear(ctx context.Context, token string) (*Ledger, error)
}

// AddItemInput adds Quantity units of a product.
type AddItemInput struct {
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	VariationID int64 `json:"variation_id" validate:"gte=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0"`
}

type service struct {
	platform cartReader
	engine   reservation.Engine
	logg     *logger.Logger
}

// NewService builds a cart service over the reservation engine.
func NewService(platform cartReader, engine reservation.Engine, logg *logger.Logger) (Service, error) {
	if platform == nil {
		return nil, fmt.Errorf("cart platform required")
	}
	if engine == nil {
		return nil, fmt.Errorf("reservation engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{platform: platform, engine: engine, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, token string) (*Ledger, error) {
	c, err := s.platform.Cart(ctx, token)
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

func (s *service) AddItem(ctx context.Context, token string, input AddItemInput) (*Ledger, error) {
	current := 0
	if token != "" {
		ledger, err := s.Get(ctx, token)
		if err != nil {
			return nil, err
		}
		current = ledger.Quantity(LineKey{ProductID: input.ProductID, VariationID: input.VariationID})
	}

	c, err := s.engine.Add(ctx, token, reservation.AddRequest{
		ProductID:       input.ProductID,
		VariationID:     input.VariationID,
		Quantity:        input.Quantity,
		CurrentQuantity: current,
	})
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

// UpdateItem sets an absolute quantity; zero or less removes the line.
func (s *service) UpdateItem(ctx context.Context, token, itemKey string, quantity int) (*Ledger, error) {
	ledger, line, found, err := s.locate(ctx, token, itemKey)
	if err != nil {
		return nil, err
	}
	if !found {
		if quantity <= 0 {
			return ledger, nil
		}
		return nil, itemNotFound(itemKey)
	}
	if quantity == line.Quantity {
		return ledger, nil
	}

	c, err := s.engine.Update(ctx, token, reservation.UpdateRequest{
		ItemKey:   itemKey,
		ProductID: line.ProductID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

func (s *service) IncrementItem(ctx context.Context, token, itemKey string, by int) (*Ledger, error) {
	_, line, found, err := s.locate(ctx, token, itemKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, itemNotFound(itemKey)
	}

	c, err := s.engine.Increment(ctx, token, reservation.IncrementRequest{
		ItemKey:         itemKey,
		ProductID:       line.ProductID,
		CurrentQuantity: line.Quantity,
		By:              by,
		CachedStock:     line.StockSnapshot,
	})
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

// RemoveItem succeeds when the line is already gone.
func (s *service) RemoveItem(ctx context.Context, token, itemKey string) (*Ledger, error) {
	ledger, _, found, err := s.locate(ctx, token, itemKey)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logg.Info(s.logg.WithCartToken(ctx, token), fmt.Sprintf("cart item %s already absent", itemKey))
		return ledger, nil
	}
	c, err := s.engine.Remove(ctx, token, itemKey)
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

func (s *service) Clear(ctx context.Context, token string) (*Ledger, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	c, err := s.platform.ClearCart(ctx, token)
	if err != nil {
		return nil, err
	}
	return NewLedger(c), nil
}

func (s *service) locate(ctx context.Context, token, itemKey string) (*Ledger, Line, bool, error) {
	if err := requireToken(token); err != nil {
		return nil, Line{}, false, err
	}
	if strings.TrimSpace(itemKey) == "" {
		return nil, Line{}, false, pkgerrors.New(pkgerrors.CodeValidation, "cart item key is required")
	}
	ledger, err := s.Get(ctx, token)
	if err != nil {
		return nil, Line{}, false, err
	}
	line, found := ledger.ByItemKey(itemKey)
	return ledger, line, found, nil
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}
	return nil
}

func itemNotFound(itemKey string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %s not found", itemKey))
}
