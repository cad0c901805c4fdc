package cart

import "github.com/shopspring/decimal"

// LineDTO is the API shape of a cart line.
type LineDTO struct {
	Key           string          `json:"key"`
	ProductID     int64           `json:"product_id"`
	VariationID   int64           `json:"variation_id,omitempty"`
	Quantity      int             `json:"quantity"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	StockSnapshot *int            `json:"stock_snapshot,omitempty"`
}

// CartDTO is the API shape of a cart.
type CartDTO struct {
	Token     string          `json:"token"`
	Items     []LineDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ToDTO renders the ledger for API responses.
func ToDTO(l *Ledger) CartDTO {
	out := CartDTO{
		Token:     l.Token(),
		Items:     make([]LineDTO, 0, l.Len()),
		ItemCount: l.TotalQuantity(),
		Subtotal:  l.Subtotal(),
	}
	for _, line := range l.Lines() {
		out.Items = append(out.Items, LineDTO{
			Key:           line.ItemKey,
			ProductID:     line.ProductID,
			VariationID:   line.VariationID,
			Quantity:      line.Quantity,
			Name:          line.Name,
			UnitPrice:     line.UnitPrice,
			LineTotal:     line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			StockSnapshot: line.StockSnapshot,
		})
	}
	return out
}
