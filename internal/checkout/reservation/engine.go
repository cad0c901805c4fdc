package reservation

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// cartPlatform is the platform's authoritative cart surface.
type cartPlatform interface {
	Cart(ctx context.Context, token string) (*commerce.Cart, error)
	AddCartItem(ctx context.Context, token string, id int64, quantity int, variation []commerce.CartItemVariation) (*commerce.Cart, error)
	UpdateCartItem(ctx context.Context, token, key string, quantity int) (*commerce.Cart, error)
	RemoveCartItem(ctx context.Context, token, key string) (*commerce.Cart, error)
}

// AddRequest adds Quantity units on top of what the cart already holds.
type AddRequest struct {
	ProductID       int64
	VariationID     int64
	Quantity        int
	CurrentQuantity int
}

// UpdateRequest sets an existing line to an absolute quantity.
type UpdateRequest struct {
	ItemKey   string
	ProductID int64
	Quantity  int
}

// IncrementRequest bumps a line by By units. CachedStock is the stock the
// shopper's cart last saw; nil skips the local pre-check.
type IncrementRequest struct {
	ItemKey         string
	ProductID       int64
	CurrentQuantity int
	By              int
	CachedStock     *int
}

// Engine pre-checks cart quantity changes against live catalog data and then
// defers to the platform, whose decision is final.
type Engine interface {
	CanApply(product catalog.Product, variationID int64, quantity int) Decision
	Add(ctx context.Context, token string, req AddRequest) (*commerce.Cart, error)
	Update(ctx context.Context, token string, req UpdateRequest) (*commerce.Cart, error)
	Increment(ctx context.Context, token string, req IncrementRequest) (*commerce.Cart, error)
	Remove(ctx context.Context, token, itemKey string) (*commerce.Cart, error)
}

type engine struct {
	catalog  catalog.Gateway
	platform cartPlatform
	logg     *logger.Logger
}

// NewEngine wires the engine to the catalog and the platform cart API.
func NewEngine(gateway catalog.Gateway, platform cartPlatform, logg *logger.Logger) (Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("catalog gateway required")
	}
	if platform == nil {
		return nil, fmt.Errorf("cart platform required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &engine{catalog: gateway, platform: platform, logg: logg}, nil
}

func (e *engine) CanApply(product catalog.Product, variationID int64, quantity int) Decision {
	return CanApply(product, variationID, quantity)
}

func (e *engine) Add(ctx context.Context, token string, req AddRequest) (*commerce.Cart, error) {
	if req.ProductID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := e.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	target := req.CurrentQuantity + req.Quantity
	if decision := CanApply(*product, req.VariationID, target); !decision.Allowed {
		return nil, decision.Err(*product, target)
	}

	cart, err := e.platform.AddCartItem(ctx, token, req.ProductID, req.Quantity, nil)
	if err != nil {
		return nil, e.rejection(ctx, "add", req.ProductID, err, false)
	}
	return cart, nil
}

func (e *engine) Update(ctx context.Context, token string, req UpdateRequest) (*commerce.Cart, error) {
	if strings.TrimSpace(req.ItemKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item key is required")
	}
	if req.Quantity <= 0 {
		return e.Remove(ctx, token, req.ItemKey)
	}

	product, err := e.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if decision := CanApply(*product, 0, req.Quantity); !decision.Allowed {
		return nil, decision.Err(*product, req.Quantity)
	}

	cart, err := e.platform.UpdateCartItem(ctx, token, req.ItemKey, req.Quantity)
	if err != nil {
		return nil, e.rejection(ctx, "update", req.ProductID, err, false)
	}
	return cart, nil
}

// Increment checks the cached snapshot first; a stale snapshot can still pass
// and lose to another shopper at the platform, which surfaces as insufficient stock.
func (e *engine) Increment(ctx context.Context, token string, req IncrementRequest) (*commerce.Cart, error) {
	if strings.TrimSpace(req.ItemKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item key is required")
	}
	by := req.By
	if by == 0 {
		by = 1
	}
	target := req.CurrentQuantity + by
	if target <= 0 {
		return e.Remove(ctx, token, req.ItemKey)
	}
	if by > 0 && req.CachedStock != nil && target > *req.CachedStock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d in stock", max(*req.CachedStock, 0))).
			WithDetails(DenialDetails{ProductID: req.ProductID, Requested: target, StockAvailable: req.CachedStock})
	}

	cart, err := e.platform.UpdateCartItem(ctx, token, req.ItemKey, target)
	if err != nil {
		return nil, e.rejection(ctx, "increment", req.ProductID, err, true)
	}
	return cart, nil
}

// Remove is idempotent: a key the platform no longer knows is not an error.
func (e *engine) Remove(ctx context.Context, token, itemKey string) (*commerce.Cart, error) {
	cart, err := e.platform.RemoveCartItem(ctx, token, itemKey)
	if err == nil {
		return cart, nil
	}
	if !missingItem(err) {
		return nil, err
	}
	e.logg.Info(ctx, fmt.Sprintf("cart item %s already removed", itemKey))
	return e.platform.Cart(ctx, token)
}

// rejection keeps the platform's notice and classifies it. Increment failures
// are always insufficient stock to the shopper.
func (e *engine) rejection(ctx context.Context, op string, productID int64, err error, increment bool) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUpstreamRejected {
		return err
	}
	notice := commerce.Notice(err)
	logCtx := e.logg.WithFields(ctx, map[string]any{
		"operation":  op,
		"product_id": productID,
		"notice":     notice,
	})
	e.logg.Warn(logCtx, "platform rejected cart mutation")

	code := classifyNotice(notice)
	if increment {
		code = pkgerrors.CodeInsufficientStock
	}
	if code == pkgerrors.CodeUpstreamRejected {
		return err
	}
	if notice == "" {
		notice = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.Wrap(code, err, notice).WithDetails(typed.Details())
}

func classifyNotice(notice string) pkgerrors.Code {
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(notice))
	switch {
	case strings.Contains(compact, "outofstock"), strings.Contains(compact, "soldout"):
		return pkgerrors.CodeOutOfStock
	case strings.Contains(compact, "stock"):
		return pkgerrors.CodeInsufficientStock
	}
	return pkgerrors.CodeUpstreamRejected
}

func missingItem(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	if typed.Code() == pkgerrors.CodeNotFound {
		return true
	}
	details, ok := typed.Details().(commerce.RejectionDetails)
	return ok && details.UpstreamCode == "woocommerce_rest_cart_invalid_key"
}
