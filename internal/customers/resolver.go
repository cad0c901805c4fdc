package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/security"
)

// RoleCustomer is the platform role given to accounts created at checkout.
const RoleCustomer = "customer"

type customerPlatform interface {
	Customer(ctx context.Context, id int64) (*commerce.Customer, error)
	CustomersByEmail(ctx context.Context, email string) ([]commerce.Customer, error)
	CreateCustomer(ctx context.Context, input commerce.CreateCustomerInput) (*commerce.Customer, error)
}

type passwordGenerator func(length int) (string, error)

// Request identifies the shopper placing an order.
type Request struct {
	CustomerID int64
	Billing    commerce.Address
	Shipping   commerce.Address
}

// Resolver finds or creates the platform customer for an order.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (int64, error)
}

type resolver struct {
	platform       customerPlatform
	logg           *logger.Logger
	passwordLength int
	newPassword    passwordGenerator
}

// NewResolver builds a resolver that creates accounts with generated passwords
// of passwordLength characters.
func NewResolver(platform customerPlatform, logg *logger.Logger, passwordLength int) (Resolver, error) {
	if platform == nil {
		return nil, fmt.Errorf("customer platform required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{
		platform:       platform,
		logg:           logg,
		passwordLength: passwordLength,
		newPassword:    security.GenerateTempPassword,
	}, nil
}

// Resolve tries the supplied id, then the billing email, then creates an account.
func (r *resolver) Resolve(ctx context.Context, req Request) (int64, error) {
	if req.CustomerID > 0 {
		customer, err := r.platform.Customer(ctx, req.CustomerID)
		if err == nil && customer != nil && customer.ID > 0 {
			return customer.ID, nil
		}
		logCtx := r.logg.WithField(ctx, "customer_id", req.CustomerID)
		r.logg.Warn(logCtx, fmt.Sprintf("supplied customer id unusable, falling back to email: %v", err))
	}

	email := strings.ToLower(strings.TrimSpace(req.Billing.Email))
	if email == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "billing email is required to resolve a customer")
	}

	if id, err := r.findByEmail(ctx, email); err != nil || id > 0 {
		return id, err
	}

	id, err := r.create(ctx, email, req)
	if err == nil {
		return id, nil
	}
	// Lost a race with a concurrent checkout for the same email.
	if existing, findErr := r.findByEmail(ctx, email); findErr == nil && existing > 0 {
		return existing, nil
	}
	return 0, err
}

func (r *resolver) findByEmail(ctx context.Context, email string) (int64, error) {
	matches, err := r.platform.CustomersByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	for _, match := range matches {
		if match.ID > 0 && strings.EqualFold(strings.TrimSpace(match.Email), email) {
			return match.ID, nil
		}
	}
	return 0, nil
}

func (r *resolver) create(ctx context.Context, email string, req Request) (int64, error) {
	password, err := r.newPassword(r.passwordLength)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate customer password")
	}
	customer, err := r.platform.CreateCustomer(ctx, commerce.CreateCustomerInput{
		Email:     email,
		FirstName: strings.TrimSpace(req.Billing.FirstName),
		LastName:  strings.TrimSpace(req.Billing.LastName),
		Username:  usernameFor(email),
		Password:  password,
		Role:      RoleCustomer,
		Billing:   req.Billing,
		Shipping:  req.Shipping,
	})
	if err != nil {
		return 0, err
	}
	r.logg.Info(r.logg.WithField(ctx, "customer_id", customer.ID), "customer account created at checkout")
	return customer.ID, nil
}

func usernameFor(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
