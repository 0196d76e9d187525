package event

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

// ProductCreated is emitted after a product has been inserted on the write side.
type ProductCreated struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	VersionToken VersionToken    `json:"versionToken"`
}

func (e *ProductCreated) EventKind() Kind { return KindProductCreated }

func (e *ProductCreated) AggregateID() string { return strconv.Itoa(e.ID) }

// Validate checks the fields a consumer needs to apply the event.
func (e *ProductCreated) Validate() error {
	return validateProduct(e.ID, e.VersionToken)
}

// ProductUpdated is emitted after an existing product has been changed.
type ProductUpdated struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	VersionToken VersionToken    `json:"versionToken"`
}

func (e *ProductUpdated) EventKind() Kind { return KindProductUpdated }

func (e *ProductUpdated) AggregateID() string { return strconv.Itoa(e.ID) }

// Validate checks the fields a consumer needs to apply the event.
func (e *ProductUpdated) Validate() error {
	return validateProduct(e.ID, e.VersionToken)
}

func validateProduct(id int, version VersionToken) error {
	if id <= 0 {
		return errors.New("id must be positive")
	}
	if version.IsZero() {
		return errors.New("versionToken is required")
	}
	return nil
}
