package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/pkg/mongodb"
)

// OtpRepository persists verification-code challenges.
type OtpRepository struct {
	coll *mongo.Collection
}

func NewOtpRepository(db *mongo.Database) *OtpRepository {
	return &OtpRepository{coll: db.Collection(mongodb.OtpsCollection)}
}

// Create inserts the challenge and fills in ID and timestamps.
func (r *OtpRepository) Create(ctx context.Context, c *models.OtpChallenge) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("otps: create: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

// FindLatestActive returns the newest unconsumed challenge for an email and
// purpose, or (nil, nil) when none exists.
func (r *OtpRepository) FindLatestActive(ctx context.Context, email, purpose string) (*models.OtpChallenge, error) {
	var c models.OtpChallenge
	err := r.coll.FindOne(ctx,
		bson.M{"email": email, "type": purpose, "consumed": false},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("otps: find latest: %w", err)
	}
	return &c, nil
}

// IncrementAttempts bumps the failed-verification counter.
func (r *OtpRepository) IncrementAttempts(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("otps: increment attempts: %w", err)
	}
	return nil
}

// MarkConsumed retires a challenge after successful verification.
func (r *OtpRepository) MarkConsumed(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"consumed": true, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("otps: mark consumed: %w", err)
	}
	return nil
}

// DeleteByID removes a challenge, e.g. when its delivery email failed.
func (r *OtpRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("otps: delete: %w", err)
	}
	return nil
}

// SweepExpired deletes challenges past their expiry. The TTL monitor does
// this too, but only every 60 seconds and with no delivery guarantee.
func (r *OtpRepository) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("otps: sweep: %w", err)
	}
	return res.DeletedCount, nil
}
