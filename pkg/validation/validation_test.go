package validation

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Email string `json:"email" validate:"required,email"`
	City  string `json:"city" validate:"required"`
}

type payload struct {
	Billing  address `json:"billing"`
	Quantity int     `json:"quantity" validate:"gt=0"`
}

func TestStructReportsJSONPaths(t *testing.T) {
	err := Struct(payload{Billing: address{Email: "nope"}})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["billing.email"])
	assert.Equal(t, "is required", details["billing.city"])
	assert.Equal(t, "must be greater than 0", details["quantity"])
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(payload{Billing: address{Email: "a@b.co", City: "Austin"}, Quantity: 1}))
}
