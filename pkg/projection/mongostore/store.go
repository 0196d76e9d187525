// Package mongostore keeps product projections in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	persistencemongo "github.com/Sokol111/ecommerce-product-sync/pkg/persistence/mongo"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const DefaultCollection = "product_projections"

type document struct {
	ID           int             `bson:"_id"`
	Name         string          `bson:"name"`
	Price        bson.Decimal128 `bson:"price"`
	VersionToken []byte          `bson:"versionToken"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

// Store implements projection.Store.
type Store struct {
	coll *persistencemongo.TimeoutCollection
}

func New(coll *persistencemongo.TimeoutCollection) *Store {
	return &Store{coll: coll}
}

// EnsureIndexes creates the indexes used by price queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return s.coll.CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "price", Value: 1}},
			Options: options.Index().SetName("price_1"),
		},
	})
}

func (s *Store) FindByID(ctx context.Context, id int) (projection.Record, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, &doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return projection.Record{}, fmt.Errorf("%w: product %d", projection.ErrNotFound, id)
	}
	if err != nil {
		return projection.Record{}, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return fromDocument(doc)
}

func (s *Store) Insert(ctx context.Context, rec projection.Record) error {
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: product %d", projection.ErrAlreadyExists, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert product %d: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, rec projection.Record, expected event.VersionToken) error {
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: rec.ID},
			{Key: "versionToken", Value: []byte(expected)},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: doc.Name},
			{Key: "price", Value: doc.Price},
			{Key: "versionToken", Value: doc.VersionToken},
			{Key: "updatedAt", Value: doc.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", rec.ID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// nothing matched: either the record is gone or its version moved
	if _, err := s.FindByID(ctx, rec.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: product %d is no longer at %s", projection.ErrConcurrencyConflict, rec.ID, expected)
}

func (s *Store) FindAll(ctx context.Context) ([]projection.Record, error) {
	return s.find(ctx, bson.D{})
}

func (s *Store) FindByPrice(ctx context.Context, price decimal.Decimal, op projection.PriceOp) ([]projection.Record, error) {
	operator, ok := priceOperators[op]
	if !ok {
		return nil, fmt.Errorf("unsupported price operator %q", op)
	}
	p, err := toDecimal128(price)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, bson.D{{Key: "price", Value: bson.D{{Key: operator, Value: p}}}})
}

var priceOperators = map[projection.PriceOp]string{
	projection.PriceEq:  "$eq",
	projection.PriceNe:  "$ne",
	projection.PriceGt:  "$gt",
	projection.PriceGte: "$gte",
	projection.PriceLt:  "$lt",
	projection.PriceLte: "$lte",
}

func (s *Store) find(ctx context.Context, filter bson.D) ([]projection.Record, error) {
	var docs []document
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := s.coll.FindAll(ctx, filter, &docs, opts); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	records := make([]projection.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toDocument(rec projection.Record) (document, error) {
	price, err := toDecimal128(rec.Price)
	if err != nil {
		return document{}, err
	}
	return document{
		ID:           rec.ID,
		Name:         rec.Name,
		Price:        price,
		VersionToken: lo.Ternary(rec.VersionToken == nil, []byte{}, []byte(rec.VersionToken)),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

func fromDocument(doc document) (projection.Record, error) {
	price, err := decimal.NewFromString(doc.Price.String())
	if err != nil {
		return projection.Record{}, fmt.Errorf("invalid price stored for product %d: %w", doc.ID, err)
	}
	return projection.Record{
		ID:           doc.ID,
		Name:         doc.Name,
		Price:        price,
		VersionToken: event.VersionToken(doc.VersionToken),
	}, nil
}

func toDecimal128(d decimal.Decimal) (bson.Decimal128, error) {
	p, err := bson.ParseDecimal128(d.String())
	if err != nil {
		return bson.Decimal128{}, fmt.Errorf("price %s is not representable: %w", d, err)
	}
	return p, nil
}
