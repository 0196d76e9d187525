// Package projection maintains the read-side copy of products and applies
// product events to it idempotently.
package projection

import (
	"context"
	"errors"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/persistence"
	"github.com/shopspring/decimal"
)

// ErrProjectionNotFound is returned when an update targets a record that has
// not been created yet. The message is retried later.
var ErrProjectionNotFound = errors.New("projection not found")

// Store errors.
var (
	ErrNotFound            = persistence.ErrNotFound
	ErrAlreadyExists       = persistence.ErrAlreadyExists
	ErrConcurrencyConflict = persistence.ErrConcurrencyConflict
)

// Record is the read-side product. Its VersionToken never moves backwards.
type Record struct {
	ID           int
	Name         string
	Price        decimal.Decimal
	VersionToken event.VersionToken
}

// Reader is the query side of the store.
type Reader interface {
	FindByID(ctx context.Context, id int) (Record, error)
	FindAll(ctx context.Context) ([]Record, error)
	FindByPrice(ctx context.Context, price decimal.Decimal, op PriceOp) ([]Record, error)
}

// Store persists records.
//
// Insert fails with ErrAlreadyExists when the id is taken. Update replaces
// the record only if its stored version equals expected; it fails with
// ErrNotFound when the record is absent and ErrConcurrencyConflict when the
// version differs.
type Store interface {
	Reader
	Insert(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record, expected event.VersionToken) error
}
