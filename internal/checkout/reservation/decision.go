package reservation

import (
	"fmt"

	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

// Decision is the outcome of a pre-check. A denied decision carries the
// error code and a shopper-facing reason.
type Decision struct {
	Allowed bool
	Code    pkgerrors.Code
	Reason  string
}

// DenialDetails accompanies every denial error.
type DenialDetails struct {
	ProductID      int64 `json:"product_id"`
	Requested      int   `json:"requested"`
	StockAvailable *int  `json:"stock_available,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code pkgerrors.Code, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Err converts a denial into a typed error; allowed decisions return nil.
func (d Decision) Err(product catalog.Product, requested int) error {
	if d.Allowed {
		return nil
	}
	return pkgerrors.New(d.Code, d.Reason).WithDetails(DenialDetails{
		ProductID:      product.ID,
		Requested:      requested,
		StockAvailable: product.StockQuantity,
	})
}

// CanApply decides whether the cart may hold quantity units of product.
// quantity is the resulting line quantity, not a delta.
//
// Cancelled and trashed products skip the stock-status check so shoppers can
// clear discontinued inventory out of their carts; a managed quantity still applies.
func CanApply(product catalog.Product, variationID int64, quantity int) Decision {
	if quantity <= 0 {
		return deny(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if product.Type != enums.ProductTypeSimple || variationID > 0 {
		return deny(pkgerrors.CodeUnsupportedProductType, fmt.Sprintf("%s products cannot be purchased here", displayType(product.Type)))
	}
	if !product.Purchasable() {
		return deny(pkgerrors.CodeNotPurchasable, fmt.Sprintf("%q cannot be purchased", displayName(product)))
	}
	if !product.ManagedStock() {
		return allow()
	}
	if !product.Status.Discontinued() && product.StockStatus == enums.StockStatusOutOfStock {
		return deny(pkgerrors.CodeOutOfStock, fmt.Sprintf("%q is out of stock", displayName(product)))
	}
	if quantity > *product.StockQuantity {
		return deny(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d of %q in stock", max(*product.StockQuantity, 0), displayName(product)))
	}
	return allow()
}

func displayName(product catalog.Product) string {
	if product.Name != "" {
		return product.Name
	}
	return fmt.Sprintf("product %d", product.ID)
}

func displayType(t enums.ProductType) string {
	if t == "" {
		return "untyped"
	}
	return string(t)
}
