package catalog

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a point-in-time snapshot of a platform product.
// StockQuantity is nil when the platform does not manage stock for it.
type Product struct {
	ID            int64
	Name          string
	Type          enums.ProductType
	Status        enums.ProductStatus
	Price         *decimal.Decimal
	RegularPrice  *decimal.Decimal
	SalePrice     *decimal.Decimal
	StockQuantity *int
	StockStatus   enums.StockStatus
	Visibility    enums.CatalogVisibility
	OwnerID       int64
	Raw           json.RawMessage
}

// FromRecord normalizes a platform record. Unknown enum spellings are kept
// verbatim so callers can still reject them.
func FromRecord(rec commerce.Product) Product {
	p := Product{
		ID:           rec.ID,
		Name:         rec.Name,
		Type:         enums.ProductType(strings.ToLower(strings.TrimSpace(rec.Type))),
		Status:       enums.ProductStatus(strings.ToLower(strings.TrimSpace(rec.Status))),
		Price:        parsePrice(rec.Price),
		RegularPrice: parsePrice(rec.RegularPrice),
		SalePrice:    parsePrice(rec.SalePrice),
		StockStatus:  enums.StockStatus(strings.ToLower(strings.TrimSpace(rec.StockStatus))),
		Visibility:   enums.CatalogVisibility(strings.ToLower(strings.TrimSpace(rec.CatalogVisibility))),
		Raw:          rec.Raw,
	}
	if parsed, err := enums.ParseProductType(rec.Type); err == nil {
		p.Type = parsed
	}
	if parsed, err := enums.ParseProductStatus(rec.Status); err == nil {
		p.Status = parsed
	}
	if parsed, err := enums.ParseStockStatus(rec.StockStatus); err == nil {
		p.StockStatus = parsed
	}
	if rec.ManageStock && rec.StockQuantity != nil {
		qty := *rec.StockQuantity
		p.StockQuantity = &qty
	}
	if owner, ok := ExtractOwner(rec.Raw); ok {
		p.OwnerID = owner
	}
	return p
}

// ManagedStock reports whether the platform tracks a quantity for this product.
func (p Product) ManagedStock() bool {
	return p.StockQuantity != nil
}

// EffectivePrice prefers the sale price, then the current price, then the regular price.
func (p Product) EffectivePrice() *decimal.Decimal {
	for _, candidate := range []*decimal.Decimal{p.SalePrice, p.Price, p.RegularPrice} {
		if candidate != nil {
			return candidate
		}
	}
	return nil
}

// Purchasable is false when the product has no price or is hidden from the catalog.
func (p Product) Purchasable() bool {
	return p.EffectivePrice() != nil && !p.Visibility.Excluded()
}

func parsePrice(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil || value.IsNegative() {
		return nil
	}
	return &value
}
