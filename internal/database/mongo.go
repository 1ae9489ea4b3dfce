// server/internal/database/mongo.go
package database

import (
	"context"
	"time"

	"darkstore-dispatch-api-server/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens the MongoDB connection and pings it.
func Connect(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	return client, client.Database(cfg.Mongo.DBName), nil
}

// EnsureIndexes creates the indexes the dispatch guarantees depend on. The
// unique index on dispatch_orders.orderID is load-bearing: it is what makes
// the claim insert an atomic check-then-create, so it must exist before the
// server takes traffic.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection("dispatch_orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderID", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderID", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "storeID", Value: 1}, {Key: "status", Value: 1}, {Key: "slaDeadline", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("riders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "riderID", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "storeID", Value: 1}, {Key: "status", Value: 1}, {Key: "currentOrders", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("dispatches").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "dispatchID", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
