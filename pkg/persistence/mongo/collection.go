package mongo

import (
	"context"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the subset of *mongo.Collection used by stores.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongodriver.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error)
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error)
	Indexes() mongodriver.IndexView
}

// TimeoutCollection bounds each call with a per-query timeout. Results are
// decoded before the timeout context is released.
type TimeoutCollection struct {
	coll    Collection
	timeout time.Duration
}

func NewTimeoutCollection(coll Collection, timeout time.Duration) *TimeoutCollection {
	return &TimeoutCollection{coll: coll, timeout: timeout}
}

func (c *TimeoutCollection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// FindOne decodes the first matching document into out. It returns
// mongo.ErrNoDocuments when nothing matches.
func (c *TimeoutCollection) FindOne(ctx context.Context, filter any, out any, opts ...options.Lister[options.FindOneOptions]) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.FindOne(ctx, filter, opts...).Decode(out)
}

// FindAll runs Find and decodes every document into results.
func (c *TimeoutCollection) FindAll(ctx context.Context, filter any, results any, opts ...options.Lister[options.FindOptions]) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}

func (c *TimeoutCollection) InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c *TimeoutCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

// CreateIndexes creates the given indexes; existing identical indexes are kept.
func (c *TimeoutCollection) CreateIndexes(ctx context.Context, models []mongodriver.IndexModel) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.coll.Indexes().CreateMany(ctx, models)
	return err
}
