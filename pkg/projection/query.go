package projection

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceOp compares a record price with a query price.
type PriceOp string

const (
	PriceEq  PriceOp = "eq"
	PriceNe  PriceOp = "ne"
	PriceGt  PriceOp = "gt"
	PriceGte PriceOp = "gte"
	PriceLt  PriceOp = "lt"
	PriceLte PriceOp = "lte"
)

var priceOpAliases = map[string]PriceOp{
	"==": PriceEq, "=": PriceEq,
	"!=": PriceNe, "<>": PriceNe,
	">": PriceGt, ">=": PriceGte,
	"<": PriceLt, "<=": PriceLte,
}

// ParsePriceOp accepts the names above or their symbols (==, !=, >, >=, <, <=).
func ParsePriceOp(s string) (PriceOp, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if op, ok := priceOpAliases[s]; ok {
		return op, nil
	}
	switch op := PriceOp(s); op {
	case PriceEq, PriceNe, PriceGt, PriceGte, PriceLt, PriceLte:
		return op, nil
	}
	return "", fmt.Errorf("unsupported price operator %q", s)
}

// Match reports whether price op target holds.
func (op PriceOp) Match(price, target decimal.Decimal) bool {
	c := price.Cmp(target)
	switch op {
	case PriceEq:
		return c == 0
	case PriceNe:
		return c != 0
	case PriceGt:
		return c > 0
	case PriceGte:
		return c >= 0
	case PriceLt:
		return c < 0
	case PriceLte:
		return c <= 0
	}
	return false
}
