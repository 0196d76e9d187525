// Package mongo manages the MongoDB client lifecycle.
package mongo

import (
	"context"
	"fmt"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.uber.org/zap"
)

// Mongo hands out collections of the configured database.
type Mongo interface {
	Collection(name string) *TimeoutCollection
}

type client struct {
	client   *mongodriver.Client
	database *mongodriver.Database
	conf     Config
	log      *zap.Logger
}

func newClient(log *zap.Logger, conf Config) (*client, error) {
	opts := options.Client().
		ApplyURI(conf.URI()).
		SetMaxPoolSize(conf.MaxPoolSize).
		SetMinPoolSize(conf.MinPoolSize).
		SetMaxConnIdleTime(conf.MaxConnIdleTime).
		SetServerSelectionTimeout(conf.ServerSelectTimeout).
		SetMonitor(otelmongo.NewMonitor())

	// Connect does no I/O; connectivity is checked by Ping on start.
	c, err := mongodriver.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &client{
		client:   c,
		database: c.Database(conf.Database),
		conf:     conf,
		log:      log.With(zap.String("component", "mongo")),
	}, nil
}

func (c *client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.conf.ConnectTimeout)
	defer cancel()
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}
	c.log.Info("connected to mongo",
		zap.String("database", c.conf.Database),
		zap.Uint64("maxPoolSize", c.conf.MaxPoolSize),
		zap.Duration("queryTimeout", c.conf.QueryTimeout),
	)
	return nil
}

func (c *client) Collection(name string) *TimeoutCollection {
	return NewTimeoutCollection(c.database.Collection(name), c.conf.QueryTimeout)
}

func (c *client) disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.conf.ConnectTimeout)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	c.log.Info("disconnected from mongo")
	return nil
}
