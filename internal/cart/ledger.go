package cart

import (
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/shopspring/decimal"
)

// LineKey is the composite identity of a cart line.
type LineKey struct {
	ProductID   int64
	VariationID int64
}

// Line is one cart entry with the snapshot the platform reported at last sync.
type Line struct {
	LineKey
	ItemKey   string
	Quantity  int
	Name      string
	UnitPrice decimal.Decimal
	// StockSnapshot is the most the platform would allow in the cart at last
	// sync; nil when stock is not limited.
	StockSnapshot *int
}

// Ledger is a request-scoped view of one shopper's cart, keyed by cart token.
type Ledger struct {
	token  string
	lines  []Line
	byKey  map[LineKey]int
	byItem map[string]int
}

const unlimitedQuantity = 9999

// NewLedger builds a ledger from the platform's cart. Lines with a
// non-positive quantity are not cart lines and are dropped.
func NewLedger(c *commerce.Cart) *Ledger {
	l := &Ledger{byKey: map[LineKey]int{}, byItem: map[string]int{}}
	if c == nil {
		return l
	}
	l.token = c.Token
	for _, item := range c.Items {
		if item.Quantity <= 0 || item.Key == "" {
			continue
		}
		line := lineFromItem(item)
		if idx, ok := l.byKey[line.LineKey]; ok {
			l.lines[idx].Quantity += line.Quantity
			l.byItem[line.ItemKey] = idx
			continue
		}
		l.byKey[line.LineKey] = len(l.lines)
		l.byItem[line.ItemKey] = len(l.lines)
		l.lines = append(l.lines, line)
	}
	return l
}

func lineFromItem(item commerce.CartItem) Line {
	key := LineKey{ProductID: item.ID}
	if item.ParentID > 0 {
		key = LineKey{ProductID: item.ParentID, VariationID: item.ID}
	}
	line := Line{
		LineKey:   key,
		ItemKey:   item.Key,
		Quantity:  item.Quantity,
		Name:      item.Name,
		UnitPrice: minorUnits(item.Prices.Price, item.Prices.CurrencyMinorUnit),
	}
	switch {
	case item.LowStockRemaining != nil:
		snapshot := *item.LowStockRemaining
		line.StockSnapshot = &snapshot
	case item.QuantityLimits.Maximum > 0 && item.QuantityLimits.Maximum < unlimitedQuantity:
		snapshot := item.QuantityLimits.Maximum
		line.StockSnapshot = &snapshot
	}
	return line
}

func minorUnits(raw string, minorUnit int) decimal.Decimal {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value.Shift(int32(-minorUnit))
}

// Token is the cart identity to send on the next platform call.
func (l *Ledger) Token() string {
	return l.token
}

// Lines returns a copy of the lines in platform order.
func (l *Ledger) Lines() []Line {
	return append([]Line(nil), l.lines...)
}

func (l *Ledger) Line(key LineKey) (Line, bool) {
	idx, ok := l.byKey[key]
	if !ok {
		return Line{}, false
	}
	return l.lines[idx], true
}

func (l *Ledger) ByItemKey(itemKey string) (Line, bool) {
	idx, ok := l.byItem[itemKey]
	if !ok {
		return Line{}, false
	}
	return l.lines[idx], true
}

// Quantity is zero for absent lines.
func (l *Ledger) Quantity(key LineKey) int {
	line, _ := l.Line(key)
	return line.Quantity
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) TotalQuantity() int {
	total := 0
	for _, line := range l.lines {
		total += line.Quantity
	}
	return total
}

func (l *Ledger) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
