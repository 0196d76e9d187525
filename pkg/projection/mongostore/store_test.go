package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	persistencemongo "github.com/Sokol111/ecommerce-product-sync/pkg/persistence/mongo"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"github.com/Sokol111/ecommerce-product-sync/pkg/testutil/container"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type StoreSuite struct {
	suite.Suite
	mongo *container.MongoDB
	store *Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	m, err := container.StartMongoDB(ctx, "")
	s.Require().NoError(err)
	s.mongo = m
}

func (s *StoreSuite) TearDownSuite() {
	if s.mongo != nil {
		s.NoError(s.mongo.Terminate(context.Background()))
	}
}

func (s *StoreSuite) SetupTest() {
	coll := s.mongo.Database("productsync").Collection(DefaultCollection)
	s.Require().NoError(coll.Drop(context.Background()))
	s.store = New(persistencemongo.NewTimeoutCollection(coll, 5*time.Second))
	s.Require().NoError(s.store.EnsureIndexes(context.Background()))
}

func record(id int, name, price string, version uint64) projection.Record {
	return projection.Record{ID: id, Name: name, Price: decimal.RequireFromString(price), VersionToken: event.NewVersionToken(version)}
}

func (s *StoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, record(1, "Widget", "9.99", 1)))

	rec, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal("Widget", rec.Name)
	s.True(decimal.RequireFromString("9.99").Equal(rec.Price))
	s.Equal(event.NewVersionToken(1), rec.VersionToken)

	err = s.store.Insert(ctx, record(1, "Duplicate", "1", 1))
	s.ErrorIs(err, projection.ErrAlreadyExists)

	_, err = s.store.FindByID(ctx, 99)
	s.ErrorIs(err, projection.ErrNotFound)
}

func (s *StoreSuite) TestConditionalUpdate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, record(1, "Widget", "9.99", 1)))

	s.Require().NoError(s.store.Update(ctx, record(1, "Widget XL", "14.99", 2), event.NewVersionToken(1)))

	err := s.store.Update(ctx, record(1, "Lost update", "1", 3), event.NewVersionToken(1))
	s.ErrorIs(err, projection.ErrConcurrencyConflict)

	err = s.store.Update(ctx, record(2, "Missing", "1", 2), event.NewVersionToken(1))
	s.ErrorIs(err, projection.ErrNotFound)

	rec, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal("Widget XL", rec.Name)
}

func (s *StoreSuite) TestFindByPrice() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, record(1, "Widget", "9.99", 1)))
	s.Require().NoError(s.store.Insert(ctx, record(2, "Gadget", "10.00", 1)))
	s.Require().NoError(s.store.Insert(ctx, record(3, "Gizmo", "25.50", 1)))

	ten := decimal.NewFromInt(10)
	for op, ids := range map[projection.PriceOp][]int{
		projection.PriceEq:  {2},
		projection.PriceNe:  {1, 3},
		projection.PriceGt:  {3},
		projection.PriceGte: {2, 3},
		projection.PriceLt:  {1},
		projection.PriceLte: {1, 2},
	} {
		recs, err := s.store.FindByPrice(ctx, ten, op)
		s.Require().NoError(err)
		got := make([]int, 0, len(recs))
		for _, r := range recs {
			got = append(got, r.ID)
		}
		s.Equal(ids, got, op)
	}

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StoreSuite) TestProjectorOverMongo() {
	ctx := context.Background()
	p := projection.NewProjector(s.store, projection.DefaultRetryConfig(), zap.NewNop())

	_, err := p.ApplyCreated(ctx, event.ProductCreated{ID: 5, Name: "Widget", Price: decimal.RequireFromString("9.99"), VersionToken: event.NewVersionToken(1)})
	s.Require().NoError(err)
	outcome, err := p.ApplyUpdated(ctx, event.ProductUpdated{ID: 5, Name: "Widget XL", Price: decimal.RequireFromString("14.99"), VersionToken: event.NewVersionToken(2)})
	s.Require().NoError(err)
	s.Equal(projection.OutcomeUpdated, outcome)
}

func TestDocumentConversion(t *testing.T) {
	rec := record(4, "Widget", "123.456", 9)

	doc, err := toDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, "123.456", doc.Price.String())

	back, err := fromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, back.ID)
	assert.True(t, rec.Price.Equal(back.Price))
	assert.Equal(t, rec.VersionToken, back.VersionToken)
}
