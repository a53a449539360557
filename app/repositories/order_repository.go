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

// ErrDuplicateOrderNumber signals a unique-index collision on orderNumber.
// The service retries with a fresh sequence.
var ErrDuplicateOrderNumber = errors.New("orders: duplicate order number")

// ProductSummary is one row of the per-product aggregation.
type ProductSummary struct {
	ProductName   string `bson:"productName" json:"productName"`
	TotalQuantity int    `bson:"totalQuantity" json:"totalQuantity"`
	OrdersCount   int    `bson:"ordersCount" json:"ordersCount"`
}

// OrderRepository persists orders.
type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(mongodb.OrdersCollection)}
}

// Insert writes the order, filling in ID and timestamps. A unique-index
// violation on orderNumber comes back as ErrDuplicateOrderNumber.
func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("orders: insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}
	return nil
}

// Count returns the total number of orders in the collection.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("orders: count: %w", err)
	}
	return n, nil
}

// FindByIDForUser returns the order only when it belongs to userID, else
// (nil, nil). A malformed hex ID also yields (nil, nil): from the caller's
// point of view that order does not exist.
func (r *OrderRepository) FindByIDForUser(ctx context.Context, orderID string, userID primitive.ObjectID) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}
	var o models.Order
	err = r.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("orders: find: %w", err)
	}
	return &o, nil
}

// ListForUser returns the user's orders newest first. A non-empty productName
// narrows to orders containing an item with that exact name.
func (r *OrderRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, productName string) ([]models.Order, error) {
	filter := bson.M{"userId": userID}
	if productName != "" {
		filter["items.name"] = productName
	}

	cur, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: list decode: %w", err)
	}
	return orders, nil
}

// SummaryByProduct aggregates the user's purchases per product name:
// total quantity and the number of orders the product appears in, sorted by
// quantity descending.
func (r *OrderRepository) SummaryByProduct(ctx context.Context, userID primitive.ObjectID) ([]ProductSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$items.name",
			"totalQuantity": bson.M{"$sum": "$items.quantity"},
			"ordersCount":   bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"productName":   "$_id",
			"_id":           0,
			"totalQuantity": 1,
			"ordersCount":   1,
		}}},
		{{Key: "$sort", Value: bson.M{"totalQuantity": -1}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("orders: summary: %w", err)
	}
	defer cur.Close(ctx)

	var summary []ProductSummary
	if err := cur.All(ctx, &summary); err != nil {
		return nil, fmt.Errorf("orders: summary decode: %w", err)
	}
	return summary, nil
}

// UpdateStatusForUser sets the status on the user's order and returns the
// updated document, or (nil, nil) when the order is absent or owned by
// someone else.
func (r *OrderRepository) UpdateStatusForUser(ctx context.Context, orderID string, userID primitive.ObjectID, status string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}
	var o models.Order
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("orders: update status: %w", err)
	}
	return &o, nil
}
