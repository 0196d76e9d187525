package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingAnnouncer keeps every announced event.
type recordingAnnouncer struct {
	mu     sync.Mutex
	events []event.Event
}

func (a *recordingAnnouncer) Go(_ context.Context, e event.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAnnouncer) all() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]event.Event(nil), a.events...)
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestService_Create(t *testing.T) {
	announcer := &recordingAnnouncer{}
	svc := NewService(announcer, zap.NewNop())

	p, err := svc.Create(t.Context(), CreateCommand{Name: "Widget", Price: price("9.99")})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
	assert.False(t, p.RowVersion.IsZero())

	events := announcer.all()
	require.Len(t, events, 1)
	created, ok := events[0].(*event.ProductCreated)
	require.True(t, ok)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.True(t, created.Price.Equal(price("9.99")))
	assert.Equal(t, 0, created.VersionToken.Compare(p.RowVersion))
	assert.NoError(t, created.Validate())
}

func TestService_CreateValidation(t *testing.T) {
	announcer := &recordingAnnouncer{}
	svc := NewService(announcer, zap.NewNop())

	_, err := svc.Create(t.Context(), CreateCommand{Name: " ", Price: price("1")})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.Create(t.Context(), CreateCommand{Name: "Widget", Price: price("-1")})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	assert.Empty(t, announcer.all())
}

func TestService_Update(t *testing.T) {
	announcer := &recordingAnnouncer{}
	svc := NewService(announcer, zap.NewNop())
	created, err := svc.Create(t.Context(), CreateCommand{Name: "Widget", Price: price("9.99")})
	require.NoError(t, err)

	updated, err := svc.Update(t.Context(), UpdateCommand{
		ID: created.ID, Name: "Widget Pro", Price: price("12.50"), RowVersion: created.RowVersion,
	})
	require.NoError(t, err)
	assert.True(t, updated.RowVersion.Newer(created.RowVersion))

	events := announcer.all()
	require.Len(t, events, 2)
	upd, ok := events[1].(*event.ProductUpdated)
	require.True(t, ok)
	assert.Equal(t, "Widget Pro", upd.Name)
	assert.Equal(t, 0, upd.VersionToken.Compare(updated.RowVersion))

	got, err := svc.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", got.Name)
}

func TestService_UpdateErrors(t *testing.T) {
	announcer := &recordingAnnouncer{}
	svc := NewService(announcer, zap.NewNop())
	created, err := svc.Create(t.Context(), CreateCommand{Name: "Widget", Price: price("9.99")})
	require.NoError(t, err)

	_, err = svc.Update(t.Context(), UpdateCommand{ID: 99, Name: "x", Price: price("1")})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Update(t.Context(), UpdateCommand{
		ID: created.ID, Name: "x", Price: price("1"), RowVersion: event.NewVersionToken(12345),
	})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, err = svc.Update(t.Context(), UpdateCommand{ID: created.ID, Name: "", Price: price("1")})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	assert.Len(t, announcer.all(), 1, "failed updates announce nothing")
}

func TestService_RowVersionsIncreaseAcrossProducts(t *testing.T) {
	svc := NewService(&recordingAnnouncer{}, zap.NewNop())

	a, err := svc.Create(t.Context(), CreateCommand{Name: "A", Price: price("1")})
	require.NoError(t, err)
	b, err := svc.Create(t.Context(), CreateCommand{Name: "B", Price: price("2")})
	require.NoError(t, err)
	a2, err := svc.Update(t.Context(), UpdateCommand{ID: a.ID, Name: "A2", Price: price("3")})
	require.NoError(t, err)

	assert.True(t, b.RowVersion.Newer(a.RowVersion))
	assert.True(t, a2.RowVersion.Newer(b.RowVersion))

	list, err := svc.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int{1, 2}, []int{list[0].ID, list[1].ID})
}

func TestService_ReturnsCopies(t *testing.T) {
	svc := NewService(&recordingAnnouncer{}, zap.NewNop())
	p, err := svc.Create(t.Context(), CreateCommand{Name: "A", Price: price("1")})
	require.NoError(t, err)

	p.RowVersion[7] = 0xFF

	stored, err := svc.Get(t.Context(), p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, p.RowVersion, stored.RowVersion)
}
