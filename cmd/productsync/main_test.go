package main

import (
	"bytes"
	"testing"

	"github.com/Sokol111/ecommerce-product-sync/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOGGER_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", "testdata/missing.env"))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestPublish_RefusesInMemoryTransport(t *testing.T) {
	out, err := execute(t, "publish", "created", "--id", "1", "--name", "Widget", "--price", "10", "--version", "1")
	require.ErrorIs(t, err, app.ErrProcessLocal)
	assert.NotContains(t, out, "published")
}

func TestPublish_RejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "zero version", args: []string{"publish", "updated", "--id", "1", "--version", "0"}},
		{name: "negative id", args: []string{"publish", "created", "--id", "-1", "--version", "1"}},
		{name: "bad price", args: []string{"publish", "created", "--id", "1", "--version", "1", "--price", "ten"}},
		{name: "missing id", args: []string{"publish", "created", "--version", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestProducts_RefusesInMemoryStore(t *testing.T) {
	for _, args := range [][]string{
		{"products", "list"},
		{"products", "get", "42"},
		{"products", "by-price", "--op", "gt", "--price", "1"},
	} {
		out, err := execute(t, args...)
		require.ErrorIs(t, err, app.ErrProcessLocal, args)
		assert.NotContains(t, out, "no products")
	}

	_, err := execute(t, "products", "by-price", "--op", "between", "--price", "1")
	assert.Error(t, err)
}

func TestServe_InvalidTransport(t *testing.T) {
	t.Setenv("TRANSPORT_KIND", "smoke-signals")
	_, err := execute(t, "serve")
	assert.Error(t, err)
}
