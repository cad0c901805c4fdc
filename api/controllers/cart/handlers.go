package cart

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	cartsvc "github.com/angelmondragon/storefront-core/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type incrementItemRequest struct {
	By int `json:"by" validate:"gte=0,lte=1000"`
}

// CartFetch returns the caller's cart, starting a new one when no token was sent.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		ledger, err := svc.Get(r.Context(), middleware.CartTokenFromContext(r.Context()))
		writeLedger(w, r, logg, ledger, err)
	}
}

// CartAddItem reserves units of a product in the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.AddItem(r.Context(), middleware.CartTokenFromContext(r.Context()), payload)
		writeLedger(w, r, logg, ledger, err)
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		key, err := validators.PathParam(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.UpdateItem(r.Context(), middleware.CartTokenFromContext(r.Context()), key, *payload.Quantity)
		writeLedger(w, r, logg, ledger, err)
	}
}

// CartIncrementItem adds one unit, or "by" units when a body is sent.
func CartIncrementItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		key, err := validators.PathParam(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload := incrementItemRequest{By: 1}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if payload.By == 0 {
				payload.By = 1
			}
		}
		ledger, err := svc.IncrementItem(r.Context(), middleware.CartTokenFromContext(r.Context()), key, payload.By)
		writeLedger(w, r, logg, ledger, err)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		key, err := validators.PathParam(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.RemoveItem(r.Context(), middleware.CartTokenFromContext(r.Context()), key)
		writeLedger(w, r, logg, ledger, err)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		ledger, err := svc.Clear(r.Context(), middleware.CartTokenFromContext(r.Context()))
		writeLedger(w, r, logg, ledger, err)
	}
}

func available(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return false
	}
	return true
}

// writeLedger echoes the cart token so new carts can be continued.
func writeLedger(w http.ResponseWriter, r *http.Request, logg *logger.Logger, ledger *cartsvc.Ledger, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if token := ledger.Token(); token != "" {
		w.Header().Set(responses.CartTokenHeader, token)
	}
	responses.WriteSuccess(w, cartsvc.ToDTO(ledger))
}
