package commerce

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MetaEntry is one key/value pair in a platform meta_data list.
type MetaEntry struct {
	ID    int64  `json:"id,omitempty"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// MetaList is the platform's loosely typed meta_data array.
type MetaList []MetaEntry

// Get returns the first value stored under key.
func (m MetaList) Get(key string) (any, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key, appending when absent.
func (m MetaList) Set(key string, value any) MetaList {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, MetaEntry{Key: key, Value: value})
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp accepts the platform's zone-less dates as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05"))
}

// Product mirrors the fields of a platform product record the core reads.
// Raw keeps the whole record for ownership extraction.
type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	Price             string          `json:"price"`
	RegularPrice      string          `json:"regular_price"`
	SalePrice         string          `json:"sale_price"`
	ManageStock       bool            `json:"manage_stock"`
	StockQuantity     *int            `json:"stock_quantity"`
	StockStatus       string          `json:"stock_status"`
	CatalogVisibility string          `json:"catalog_visibility"`
	MetaData          MetaList        `json:"meta_data"`
	Raw               json.RawMessage `json:"-"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// CartItemPrices carries minor-unit price strings as the store API returns them.
type CartItemPrices struct {
	Price             string `json:"price"`
	RegularPrice      string `json:"regular_price"`
	SalePrice         string `json:"sale_price"`
	CurrencyMinorUnit int    `json:"currency_minor_unit"`
}

type CartItemVariation struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

type QuantityLimits struct {
	Minimum  int  `json:"minimum"`
	Maximum  int  `json:"maximum"`
	Editable bool `json:"editable"`
}

type CartItem struct {
	Key               string              `json:"key"`
	ID                int64               `json:"id"`
	ParentID          int64               `json:"parent_id,omitempty"`
	Quantity          int                 `json:"quantity"`
	Name              string              `json:"name"`
	Type              string              `json:"type,omitempty"`
	LowStockRemaining *int                `json:"low_stock_remaining"`
	QuantityLimits    QuantityLimits      `json:"quantity_limits"`
	Variation         []CartItemVariation `json:"variation"`
	Prices            CartItemPrices      `json:"prices"`
}

type Cart struct {
	Token      string     `json:"-"`
	Items      []CartItem `json:"items"`
	ItemsCount int        `json:"items_count"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type LineItem struct {
	ID          int64           `json:"id,omitempty"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id,omitempty"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Total       decimal.Decimal `json:"total"`
	MetaData    MetaList        `json:"meta_data,omitempty"`
}

type Order struct {
	ID                 int64           `json:"id"`
	Status             string          `json:"status"`
	CustomerID         int64           `json:"customer_id"`
	Currency           string          `json:"currency"`
	Total              decimal.Decimal `json:"total"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []LineItem      `json:"line_items"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	TransactionID      string          `json:"transaction_id"`
	DatePaid           Timestamp       `json:"date_paid"`
	DateCreated        Timestamp       `json:"date_created"`
	MetaData           MetaList        `json:"meta_data"`
}

// Paid reports whether the platform recorded a payment date.
func (o Order) Paid() bool {
	return !o.DatePaid.IsZero()
}

// LineItemInput is a line on an order create request.
type LineItemInput struct {
	ProductID   int64    `json:"product_id"`
	VariationID int64    `json:"variation_id,omitempty"`
	Quantity    int      `json:"quantity"`
	MetaData    MetaList `json:"meta_data,omitempty"`
}

type CreateOrderInput struct {
	Status             string          `json:"status"`
	CustomerID         int64           `json:"customer_id,omitempty"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []LineItemInput `json:"line_items"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	PaymentMethodTitle string          `json:"payment_method_title,omitempty"`
	TransactionID      string          `json:"transaction_id,omitempty"`
	SetPaid            bool            `json:"set_paid"`
	MetaData           MetaList        `json:"meta_data,omitempty"`
}

// LineItemUpdate updates meta on an existing order line.
type LineItemUpdate struct {
	ID       int64    `json:"id"`
	MetaData MetaList `json:"meta_data"`
}

// UpdateOrderInput carries partial order changes; nil fields are omitted.
type UpdateOrderInput struct {
	Status    *string          `json:"status,omitempty"`
	LineItems []LineItemUpdate `json:"line_items,omitempty"`
	MetaData  MetaList         `json:"meta_data,omitempty"`
}

type Customer struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Role      string  `json:"role"`
	Username  string  `json:"username"`
	Billing   Address `json:"billing"`
}

type CreateCustomerInput struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Username  string  `json:"username,omitempty"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	Billing   Address `json:"billing"`
	Shipping  Address `json:"shipping"`
}

// ContentEntry is the slice of a content-endpoint post the core reads.
type ContentEntry struct {
	ID     int64 `json:"id"`
	Author int64 `json:"author"`
}

// StockOperation names the direction of a stock adjustment.
type StockOperation string

const (
	StockDecrease StockOperation = "decrease"
	StockIncrease StockOperation = "increase"
)

type stockChange struct {
	Operation StockOperation `json:"operation"`
	Quantity  int            `json:"quantity"`
}

// StockLevel is the platform's answer to a stock adjustment.
type StockLevel struct {
	ProductID     int64 `json:"id"`
	StockQuantity *int  `json:"stock_quantity"`
}
