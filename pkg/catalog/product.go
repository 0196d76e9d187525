// Package catalog is the write side of the product catalog. Every accepted
// change gets a new row version and is announced with a detached publish.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/persistence"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProduct = errors.New("invalid product")

	ErrProductNotFound = persistence.ErrNotFound
	ErrVersionMismatch = persistence.ErrConcurrencyConflict
)

type Product struct {
	ID         int
	Name       string
	Price      decimal.Decimal
	RowVersion event.VersionToken
}

type CreateCommand struct {
	Name  string
	Price decimal.Decimal
}

// UpdateCommand replaces name and price. A non-empty RowVersion must match
// the stored one.
type UpdateCommand struct {
	ID         int
	Name       string
	Price      decimal.Decimal
	RowVersion event.VersionToken
}

func validate(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price %s is negative", ErrInvalidProduct, price)
	}
	return nil
}

func (p Product) clone() Product {
	p.RowVersion = p.RowVersion.Clone()
	return p
}
