package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) Customer(ctx context.Context, id int64) (*Customer, error) {
	var out Customer
	if _, err := c.do(ctx, request{op: "get_customer", method: http.MethodGet, api: adminAPI, path: fmt.Sprintf("customers/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomersByEmail returns every customer registered under email.
func (c *Client) CustomersByEmail(ctx context.Context, email string) ([]Customer, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("role", "all")
	var out []Customer
	if _, err := c.do(ctx, request{op: "find_customer", method: http.MethodGet, api: adminAPI, path: "customers", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	var out Customer
	if _, err := c.do(ctx, request{op: "create_customer", method: http.MethodPost, api: adminAPI, path: "customers", body: input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
