package orders

import (
	"time"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/shopspring/decimal"
)

// AddressInput is a billing or shipping address on an order request.
type AddressInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}

func (a AddressInput) toCommerce() commerce.Address {
	return commerce.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}

// ShippingInput is optional; when empty the billing address is used.
type ShippingInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

func (s ShippingInput) empty() bool {
	return s.Address1 == "" && s.City == "" && s.FirstName == "" && s.LastName == ""
}

// LineItemInput is validated leniently: invalid lines are dropped, not rejected.
type LineItemInput struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

// CreateOrderInput is the request to turn a cart into an order.
type CreateOrderInput struct {
	CustomerID         int64           `json:"customer_id"`
	Status             string          `json:"status"`
	Billing            AddressInput    `json:"billing" validate:"required"`
	Shipping           ShippingInput   `json:"shipping"`
	LineItems          []LineItemInput `json:"line_items"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	TransactionID      string          `json:"transaction_id"`
	SetPaid            bool            `json:"set_paid"`
}

type LineItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id,omitempty"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// OrderDTO is the API view of a platform order.
type OrderDTO struct {
	ID                 int64               `json:"id"`
	Status             enums.OrderStatus   `json:"status"`
	CustomerID         int64               `json:"customer_id"`
	Guest              bool                `json:"guest"`
	Currency           string              `json:"currency,omitempty"`
	Total              decimal.Decimal     `json:"total"`
	Billing            commerce.Address    `json:"billing"`
	Shipping           commerce.Address    `json:"shipping"`
	LineItems          []LineItemDTO       `json:"line_items"`
	PaymentMethod      string              `json:"payment_method,omitempty"`
	PaymentMethodTitle string              `json:"payment_method_title,omitempty"`
	TransactionID      string              `json:"transaction_id,omitempty"`
	IsPaid             bool                `json:"is_paid"`
	PaidAt             *time.Time          `json:"paid_at,omitempty"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	StockReduced       bool                `json:"stock_reduced"`
	CreatedAt          *time.Time          `json:"created_at,omitempty"`
}

// SellerOrderDTO is an order attributed to one seller.
type SellerOrderDTO struct {
	OrderDTO
	SellerTotal decimal.Decimal `json:"seller_total"`
	SellerLines []int64         `json:"seller_line_ids"`
}

// SellerQuery filters a seller's order listing.
type SellerQuery struct {
	SellerID int64
	Page     int
	PerPage  int
	Status   string
}

func orderStatus(raw string) enums.OrderStatus {
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return enums.OrderStatus(raw)
	}
	return status
}

// ToDTO renders a platform order.
func ToDTO(o commerce.Order) OrderDTO {
	status := orderStatus(o.Status)
	paymentStatus := enums.DerivePaymentStatus(status, o.Paid())
	dto := OrderDTO{
		ID:                 o.ID,
		Status:             status,
		CustomerID:         o.CustomerID,
		Guest:              o.CustomerID == 0,
		Currency:           o.Currency,
		Total:              o.Total,
		Billing:            o.Billing,
		Shipping:           o.Shipping,
		LineItems:          make([]LineItemDTO, 0, len(o.LineItems)),
		PaymentMethod:      o.PaymentMethod,
		PaymentMethodTitle: o.PaymentMethodTitle,
		TransactionID:      o.TransactionID,
		IsPaid:             paymentStatus == enums.PaymentStatusPaid,
		PaymentStatus:      paymentStatus,
		StockReduced:       stockReduced(o.MetaData),
	}
	if o.Paid() {
		paid := o.DatePaid.Time
		dto.PaidAt = &paid
	}
	if !o.DateCreated.IsZero() {
		created := o.DateCreated.Time
		dto.CreatedAt = &created
	}
	for _, line := range o.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:          line.ID,
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			Total:       line.Total,
		})
	}
	return dto
}
