package enums

import (
	"fmt"
	"strings"
)

// ProductType is the catalog product kind. Only ProductTypeSimple is supported by cart and checkout.
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
	ProductTypeGrouped  ProductType = "grouped"
	ProductTypeExternal ProductType = "external"
)

var validProductTypes = []ProductType{
	ProductTypeSimple,
	ProductTypeVariable,
	ProductTypeGrouped,
	ProductTypeExternal,
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}

// ProductStatus is the lifecycle status of a catalog record.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPending   ProductStatus = "pending"
	ProductStatusPrivate   ProductStatus = "private"
	ProductStatusPublished ProductStatus = "publish"
	ProductStatusCancelled ProductStatus = "cancelled"
	ProductStatusTrashed   ProductStatus = "trash"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusPending,
	ProductStatusPrivate,
	ProductStatusPublished,
	ProductStatusCancelled,
	ProductStatusTrashed,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus. "published" and "trashed" are accepted aliases.
func ParseProductStatus(value string) (ProductStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "published":
		return ProductStatusPublished, nil
	case "trashed":
		return ProductStatusTrashed, nil
	case "canceled":
		return ProductStatusCancelled, nil
	}
	for _, candidate := range validProductStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// Discontinued reports whether the product was cancelled or trashed. Discontinued products
// are always treated as in stock for cart purposes so shoppers can still clear them out.
func (s ProductStatus) Discontinued() bool {
	return s == ProductStatusCancelled || s == ProductStatusTrashed
}

// CatalogVisibility controls where the platform lists a product.
type CatalogVisibility string

const (
	CatalogVisibilityVisible CatalogVisibility = "visible"
	CatalogVisibilityCatalog CatalogVisibility = "catalog"
	CatalogVisibilitySearch  CatalogVisibility = "search"
	CatalogVisibilityHidden  CatalogVisibility = "hidden"
)

// Excluded reports whether the product is explicitly excluded from the catalog.
func (v CatalogVisibility) Excluded() bool {
	return CatalogVisibility(strings.ToLower(strings.TrimSpace(string(v)))) == CatalogVisibilityHidden
}
