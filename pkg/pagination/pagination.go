package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is the standard page size when none is provided.
	DefaultPerPage = 20
	// MaxPerPage mirrors the platform's own listing cap.
	MaxPerPage = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize enforces page >= 1 and the default/maximum page sizes.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage = NormalizePerPage(p.PerPage)
	return p
}

// NormalizePerPage enforces the configured default and maximum limits.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// FromQuery reads page and per_page, rejecting non-numeric values.
func FromQuery(values url.Values) (Params, error) {
	page, err := intParam(values, "page")
	if err != nil {
		return Params{}, err
	}
	perPage, err := intParam(values, "per_page")
	if err != nil {
		return Params{}, err
	}
	return Params{Page: page, PerPage: perPage}.Normalize(), nil
}

func intParam(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
