package controllers

import (
	"net/http"
	"sort"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/ownership"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type resolveOwnersRequest struct {
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,max=500,dive,gt=0"`
}

type resolveOwnersResponse struct {
	Owners     map[int64]int64 `json:"owners"`
	Unresolved []int64         `json:"unresolved"`
}

// ResolveOwners maps product ids to seller ids. Ids no tier could resolve
// are listed rather than failing the request.
func ResolveOwners(resolver ownership.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ownership resolver unavailable"))
			return
		}

		var payload resolveOwnersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owners, err := resolver.Resolve(r.Context(), payload.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := resolveOwnersResponse{Owners: owners, Unresolved: []int64{}}
		seen := make(map[int64]struct{}, len(payload.ProductIDs))
		for _, id := range payload.ProductIDs {
			if _, ok := owners[id]; ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out.Unresolved = append(out.Unresolved, id)
		}
		sort.Slice(out.Unresolved, func(i, j int) bool { return out.Unresolved[i] < out.Unresolved[j] })
		responses.WriteSuccess(w, out)
	}
}
