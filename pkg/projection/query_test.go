package projection

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceOp(t *testing.T) {
	for input, want := range map[string]PriceOp{
		"eq": PriceEq, "==": PriceEq,
		"ne": PriceNe, "!=": PriceNe,
		"GT": PriceGt, ">": PriceGt,
		"gte": PriceGte, ">=": PriceGte,
		"lt": PriceLt, "<": PriceLt,
		" lte ": PriceLte, "<=": PriceLte,
	} {
		op, err := ParsePriceOp(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, op, input)
	}

	_, err := ParsePriceOp("between")
	assert.Error(t, err)
}

func TestPriceOp_Match(t *testing.T) {
	ten := decimal.NewFromInt(10)
	cheaper := decimal.RequireFromString("9.99")

	assert.True(t, PriceEq.Match(decimal.RequireFromString("10.00"), ten))
	assert.True(t, PriceNe.Match(cheaper, ten))
	assert.True(t, PriceLt.Match(cheaper, ten))
	assert.True(t, PriceLte.Match(ten, ten))
	assert.False(t, PriceGt.Match(ten, ten))
	assert.True(t, PriceGte.Match(ten, ten))
	assert.False(t, PriceOp("bogus").Match(ten, ten))
}
