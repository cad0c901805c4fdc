package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// OrderQuery filters a bulk order listing.
type OrderQuery struct {
	Page     int
	PerPage  int
	Statuses []string
	Before   time.Time
	Customer int64
}

func (q OrderQuery) values() url.Values {
	values := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = 20
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(perPage))
	if len(q.Statuses) > 0 {
		values.Set("status", strings.Join(q.Statuses, ","))
	}
	if !q.Before.IsZero() {
		values.Set("before", q.Before.UTC().Format(time.RFC3339))
	}
	if q.Customer > 0 {
		values.Set("customer", strconv.FormatInt(q.Customer, 10))
	}
	return values
}

// OrderPage is one page of a bulk order listing. Total is the platform-wide count.
type OrderPage struct {
	Orders []Order
	Total  int
}

func (c *Client) Orders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	var out []Order
	resp, err := c.do(ctx, request{op: "list_orders", method: http.MethodGet, api: adminAPI, path: "orders", query: q.values()}, &out)
	if err != nil {
		return nil, err
	}
	total, convErr := strconv.Atoi(resp.header.Get(totalHeader))
	if convErr != nil {
		total = len(out)
	}
	return &OrderPage{Orders: out, Total: total}, nil
}

func (c *Client) Order(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if _, err := c.do(ctx, request{op: "get_order", method: http.MethodGet, api: adminAPI, path: fmt.Sprintf("orders/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	var out Order
	if _, err := c.do(ctx, request{op: "create_order", method: http.MethodPost, api: adminAPI, path: "orders", body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, input UpdateOrderInput) (*Order, error) {
	var out Order
	if _, err := c.do(ctx, request{op: "update_order", method: http.MethodPut, api: adminAPI, path: fmt.Sprintf("orders/%d", id), body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrashOrder soft-deletes an order; the platform keeps it recoverable.
func (c *Client) TrashOrder(ctx context.Context, id int64) (*Order, error) {
	query := url.Values{}
	query.Set("force", "false")
	var out Order
	if _, err := c.do(ctx, request{op: "trash_order", method: http.MethodDelete, api: adminAPI, path: fmt.Sprintf("orders/%d", id), query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
