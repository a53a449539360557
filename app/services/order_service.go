package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/pkg/event"
	"github.com/herbveda/storefront/pkg/metrics"
)

// OrderCreated is fired after an order is persisted. The payload is the
// saved *models.Order.
const OrderCreated = "order.created"

// orderNumberRetries bounds the regenerate-and-reinsert loop when two orders
// land on the same number.
const orderNumberRetries = 3

// OrderStore is the slice of the order repository the order flows need.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	Count(ctx context.Context) (int64, error)
	FindByIDForUser(ctx context.Context, orderID string, userID primitive.ObjectID) (*models.Order, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, productName string) ([]models.Order, error)
	SummaryByProduct(ctx context.Context, userID primitive.ObjectID) ([]repositories.ProductSummary, error)
	UpdateStatusForUser(ctx context.Context, orderID string, userID primitive.ObjectID, status string) (*models.Order, error)
}

// OrderService implements order creation, retrieval, reporting, and status
// updates, always scoped to the requesting user.
type OrderService struct {
	users  UserStore
	orders OrderStore
}

func NewOrderService(users UserStore, orders OrderStore) *OrderService {
	return &OrderService{users: users, orders: orders}
}

// OrderItemInput is one incoming order line. Clients send several shapes, so
// identity and name fields each have fallbacks.
type OrderItemInput struct {
	ProductID   string   `json:"productId"`
	ID          string   `json:"id"`
	MongoID     any      `json:"_id"` // string or serialized ObjectID
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Price       any      `json:"price"` // string or number
	Quantity    int      `json:"quantity"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
}

// CreateOrderInput is the payload of a create-order request.
type CreateOrderInput struct {
	Items          []OrderItemInput    `json:"items"`
	Subtotal       float64             `json:"subtotal"`
	DeliveryCharge float64             `json:"deliveryCharge"`
	Total          float64             `json:"total"`
	CustomerInfo   models.CustomerInfo `json:"customerInfo"`
}

// stringifyID renders an `_id` value that may arrive as a plain string or as
// a serialized ObjectID like {"$oid": "..."}.
func stringifyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case map[string]any:
		if oid, ok := id["$oid"].(string); ok {
			return oid
		}
		return fmt.Sprintf("%v", id)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

// normalizeItem resolves the identity and name fallbacks and renders the
// price as a string.
func normalizeItem(in OrderItemInput) models.OrderItem {
	productID := in.ProductID
	if productID == "" {
		productID = in.ID
	}
	if productID == "" {
		productID = stringifyID(in.MongoID)
	}

	name := in.Name
	if name == "" {
		name = in.Title
	}
	if name == "" {
		name = "Unknown Product"
	}

	price := ""
	switch p := in.Price.(type) {
	case string:
		price = p
	case float64:
		price = strconv.FormatFloat(p, 'f', -1, 64)
	case nil:
	default:
		price = fmt.Sprintf("%v", p)
	}

	return models.OrderItem{
		ProductID:   productID,
		Name:        name,
		Price:       price,
		Quantity:    in.Quantity,
		Image:       in.Image,
		Description: in.Description,
		Benefits:    in.Benefits,
	}
}

// Create validates and persists an order, assigns a unique order number, and
// fires OrderCreated. Invoice delivery happens behind the event; a failure
// there never affects the response.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, NewError(http.StatusBadRequest, "Order items are required")
	}
	ci := in.CustomerInfo
	if ci.Name == "" || ci.Email == "" || ci.Phone == "" || ci.Address == "" {
		return nil, NewError(http.StatusBadRequest, "Complete customer information is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewError(http.StatusNotFound, "User not found")
	}

	order := &models.Order{
		UserID:         user.ID,
		Items:          make([]models.OrderItem, len(in.Items)),
		Subtotal:       in.Subtotal,
		DeliveryCharge: in.DeliveryCharge,
		Total:          in.Total,
		CustomerInfo:   ci,
		Status:         models.DefaultStatus,
	}
	for i, item := range in.Items {
		order.Items[i] = normalizeItem(item)
	}

	// The number comes from the collection size, so two concurrent creates
	// can collide on the unique index. Regenerate and retry.
	for attempt := 0; ; attempt++ {
		count, err := s.orders.Count(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = models.NewOrderNumber(time.Now(), count+1)

		err = s.orders.Insert(ctx, order)
		if err == nil {
			break
		}
		if err == repositories.ErrDuplicateOrderNumber && attempt < orderNumberRetries {
			continue
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	event.Fire(OrderCreated, order)
	return order, nil
}

// Get returns the user's order, or a 404 whether the order is missing or
// belongs to someone else.
func (s *OrderService) Get(ctx context.Context, userID string, orderID string) (*models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewError(http.StatusNotFound, "Order not found")
	}
	order, err := s.orders.FindByIDForUser(ctx, orderID, uid)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewError(http.StatusNotFound, "Order not found")
	}
	return order, nil
}

// List returns the user's orders newest first, optionally narrowed to those
// containing a product with the exact given name.
func (s *OrderService) List(ctx context.Context, userID string, productName string) ([]models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return s.orders.ListForUser(ctx, uid, productName)
}

// Summary aggregates the user's purchases per product name.
func (s *OrderService) Summary(ctx context.Context, userID string) ([]repositories.ProductSummary, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return s.orders.SummaryByProduct(ctx, uid)
}

// UpdateStatus moves the user's order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, NewError(http.StatusBadRequest, "Invalid status")
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewError(http.StatusNotFound, "Order not found")
	}
	order, err := s.orders.UpdateStatusForUser(ctx, orderID, uid, status)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewError(http.StatusNotFound, "Order not found")
	}
	return order, nil
}
