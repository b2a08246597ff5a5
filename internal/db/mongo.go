package db

import (
	"context"
	"fmt"

	"aquadash/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// OpenMongo connects to the deployment in cfg.DatabaseURL and returns the
// client together with the database the URI names (or cfg.MongoDatabase).
func OpenMongo(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo uri: %w", err)
	}
	name := cs.Database
	if name == "" {
		name = cfg.MongoDatabase
	}

	opts := options.Client().ApplyURI(cfg.DatabaseURL)
	if cfg.MaxOpenConns > 1 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	if cfg.ConnMaxLifetime > 0 {
		opts.SetMaxConnIdleTime(cfg.ConnMaxLifetime)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(name), nil
}
