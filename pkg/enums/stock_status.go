package enums

import (
	"fmt"
	"strings"
)

// StockStatus is the normalized stock availability of a product.
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

var validStockStatuses = []StockStatus{
	StockStatusInStock,
	StockStatusOutOfStock,
	StockStatusOnBackorder,
}

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockStatus.
func (s StockStatus) IsValid() bool {
	for _, candidate := range validStockStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockStatus normalizes the spellings the platform emits ("out_of_stock",
// "outofstock", "Out of stock", "in-stock", ...) into a StockStatus.
func ParseStockStatus(value string) (StockStatus, error) {
	key := compactStockKey(value)
	for _, candidate := range validStockStatuses {
		if string(candidate) == key {
			return candidate, nil
		}
	}
	switch key {
	case "backorder", "backordered":
		return StockStatusOnBackorder, nil
	case "soldout":
		return StockStatusOutOfStock, nil
	}
	return "", fmt.Errorf("invalid stock status %q", value)
}

func compactStockKey(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
