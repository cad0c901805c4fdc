package orders

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
)

const (
	// MetaOrderStockReduced marks an order whose stock has been decremented.
	MetaOrderStockReduced = "_order_stock_reduced"
	// MetaLineReducedStock records how many units were decremented for a line.
	MetaLineReducedStock = "_reduced_stock"
)

func stockReduced(meta commerce.MetaList) bool {
	value, ok := meta.Get(MetaOrderStockReduced)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "1", "true":
			return true
		}
	case float64:
		return v == 1
	case int:
		return v == 1
	}
	return false
}

// reducedQuantity returns the recorded decrement for a line, if one exists.
func reducedQuantity(meta commerce.MetaList) (int, bool) {
	value, ok := meta.Get(MetaLineReducedStock)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
