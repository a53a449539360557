// Package mongodb owns the Mongo client and the index set the storefront
// relies on for its invariants.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herbveda/storefront/config"
)

// Collection names.
const (
	UsersCollection      = "users"
	OtpsCollection       = "otps"
	OrdersCollection     = "orders"
	FailedJobsCollection = "failed_jobs"
	LogsCollection       = "logs"
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// Connect opens the Mongo client, configures the pool, and verifies the
// connection with a ping. Call once at boot.
func Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(config.MongoURI()).
		SetMaxPoolSize(25).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(2 * time.Minute)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongodb: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("mongodb: ping: %w", err)
	}

	client = c
	db = c.Database(config.MongoDatabase())
	return nil
}

// DB returns the application database handle.
func DB() *mongo.Database { return db }

// Close disconnects the client.
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// EnsureIndexes creates every index the data model's invariants depend on:
//
//   - users.email unique — one account per lowercase address
//   - orders.orderNumber unique — the order-number guarantee rests here, not
//     on the generation scheme
//   - otps.expiresAt TTL — the store purges expired challenges in the
//     background; verify-time expiry checks remain because the TTL monitor is
//     best-effort
func EnsureIndexes(ctx context.Context) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("mongodb: users indexes: %w", err)
	}

	otps := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	if _, err := db.Collection(OtpsCollection).Indexes().CreateMany(ctx, otps); err != nil {
		return fmt.Errorf("mongodb: otps indexes: %w", err)
	}

	orders := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "items.name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "items.productId", Value: 1}},
		},
	}
	if _, err := db.Collection(OrdersCollection).Indexes().CreateMany(ctx, orders); err != nil {
		return fmt.Errorf("mongodb: orders indexes: %w", err)
	}

	return nil
}
